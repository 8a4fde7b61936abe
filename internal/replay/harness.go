// Package replay re-runs recorded orders through the negotiation engine and
// checks each outcome against the fixture's expectations. Evaluation is
// deterministic given a policy snapshot and a fixed clock, so divergence
// from a fixture means the decision logic changed.
package replay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/synklabs/ordergate/internal/negotiate"
)

// #region types

// CaseResult captures the outcome of replaying one recorded order.
type CaseResult struct {
	Name       string
	Passed     bool
	Mismatches []string

	Decision      string
	RoundsUsed    int
	BlockingGates []string
	FinalPrice    float64
	FinalQuantity int
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCases int
	Passed     int
	Failed     int
}

// #endregion types

// #region replay

// Replay runs every fixture case through the engine in order. A case that
// fails to evaluate at all is reported as a mismatch, not an error, so one
// bad case never aborts the batch.
func Replay(ctx context.Context, engine *negotiate.Engine, fixture *Fixture) []CaseResult {
	results := make([]CaseResult, 0, len(fixture.Orders))
	for _, c := range fixture.Orders {
		results = append(results, replayCase(ctx, engine, c))
	}
	return results
}

func replayCase(ctx context.Context, engine *negotiate.Engine, c FixtureCase) CaseResult {
	res := CaseResult{Name: c.Name}

	outcome, err := engine.Negotiate(ctx, c.Order)
	if err != nil {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("negotiation failed: %v", err))
		return res
	}

	final := outcome.FinalRequest()
	res.Decision = string(outcome.Consensus.Decision)
	res.RoundsUsed = len(outcome.Rounds)
	res.BlockingGates = outcome.Consensus.BlockingGates
	res.FinalPrice = outcome.Consensus.FinalPrice
	res.FinalQuantity = final.Quantity

	exp := c.Expected
	if exp.Decision != "" && !strings.EqualFold(exp.Decision, res.Decision) {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("decision: want %s, got %s", exp.Decision, res.Decision))
	}
	if exp.RoundsUsed > 0 && exp.RoundsUsed != res.RoundsUsed {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("rounds: want %d, got %d", exp.RoundsUsed, res.RoundsUsed))
	}
	if len(exp.BlockingGates) > 0 && !sameGates(exp.BlockingGates, res.BlockingGates) {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("blocking gates: want %v, got %v", exp.BlockingGates, res.BlockingGates))
	}
	if exp.FinalPrice > 0 && exp.FinalPrice != res.FinalPrice {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("final price: want %.2f, got %.2f", exp.FinalPrice, res.FinalPrice))
	}
	if exp.FinalQuantity > 0 && exp.FinalQuantity != res.FinalQuantity {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("final quantity: want %d, got %d", exp.FinalQuantity, res.FinalQuantity))
	}

	res.Passed = len(res.Mismatches) == 0
	return res
}

func sameGates(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	w := append([]string(nil), want...)
	g := append([]string(nil), got...)
	sort.Strings(w)
	sort.Strings(g)
	for i := range w {
		if !strings.EqualFold(w[i], g[i]) {
			return false
		}
	}
	return true
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) Summary {
	s := Summary{TotalCases: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// #endregion replay
