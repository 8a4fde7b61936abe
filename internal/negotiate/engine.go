// Package negotiate runs the bounded evaluation-and-revision loop: up to
// three rounds of the five-gate pipeline, with order terms revised between
// rounds based on which gates blocked.
package negotiate

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/synklabs/ordergate/internal/consensus"
	"github.com/synklabs/ordergate/internal/gates"
	"github.com/synklabs/ordergate/internal/narrator"
	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region constants

const maxRounds = 3 // strict bound, a failed round 3 is final

// #endregion

// #region engine

// Engine is the fully wired evaluation pipeline. It is read-only after
// construction and safe for concurrent use across orders.
type Engine struct {
	policy      *policy.Store
	cfg         consensus.Config
	narrator    narrator.Narrator
	recorder    Recorder
	now         func() time.Time
	procurement *gates.ProcurementEvaluator
	production  *gates.ProductionEvaluator
	logistics   *gates.LogisticsEvaluator
	finance     *gates.FinanceEvaluator
	sales       *gates.SalesEvaluator
}

// Options configures optional engine collaborators. Zero values select a
// no-op narrator, no persistence, the default consensus threshold, and the
// wall clock.
type Options struct {
	Consensus consensus.Config
	Narrator  narrator.Narrator
	Recorder  Recorder
	Now       func() time.Time
}

// NewEngine wires the five gates against one policy snapshot.
func NewEngine(p *policy.Store, opts Options) *Engine {
	if opts.Consensus.MinAverageConfidence <= 0 {
		opts.Consensus.MinAverageConfidence = consensus.MinAverageConfidence
	}
	if opts.Narrator == nil {
		opts.Narrator = narrator.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		policy:      p,
		cfg:         opts.Consensus,
		narrator:    opts.Narrator,
		recorder:    opts.Recorder,
		now:         opts.Now,
		procurement: gates.NewProcurement(p),
		production:  gates.NewProduction(p),
		logistics:   gates.NewLogistics(p),
		finance:     gates.NewFinance(p),
		sales:       gates.NewSales(p),
	}
}

// #endregion

// #region evaluate

// Evaluate runs one full gate pass over the request as submitted.
func (e *Engine) Evaluate(ctx context.Context, req order.Request) (consensus.Result, error) {
	if err := ctx.Err(); err != nil {
		return consensus.Result{}, err
	}
	if err := req.Validate(); err != nil {
		return consensus.Result{}, err
	}
	_, res := e.runRound(req)
	return res, nil
}

// runRound executes the five gates in dependency order and aggregates.
func (e *Engine) runRound(req order.Request) (consensus.GateSet, consensus.Result) {
	var set consensus.GateSet

	set.Procurement = e.procurement.Evaluate(req)
	set.Production = e.production.Evaluate(req)
	set.Logistics = e.logistics.Evaluate(req, set.Production.ProductionDays, e.now())
	set.Finance = e.finance.Evaluate(req, set.Procurement, set.Production, set.Logistics)
	set.Sales = e.sales.Evaluate(req, set.Finance, set.Logistics)

	set.Procurement.Verdict = narrator.Apply(e.narrator, req, set.Procurement.Verdict)
	set.Production.Verdict = narrator.Apply(e.narrator, req, set.Production.Verdict)
	set.Logistics.Verdict = narrator.Apply(e.narrator, req, set.Logistics.Verdict)
	set.Finance.Verdict = narrator.Apply(e.narrator, req, set.Finance.Verdict)
	set.Sales.Verdict = narrator.Apply(e.narrator, req, set.Sales.Verdict)

	return set, consensus.Aggregate(e.cfg, set)
}

// Round runs a single round against the request as-is and returns the full
// summary. The round number comes from the request context.
func (e *Engine) Round(ctx context.Context, req order.Request) (RoundSummary, error) {
	if err := ctx.Err(); err != nil {
		return RoundSummary{}, err
	}
	if err := req.Validate(); err != nil {
		return RoundSummary{}, err
	}
	req = req.WithContext(req.EnsureContext())
	set, res := e.runRound(req)
	return RoundSummary{
		RoundNumber: req.Context.RoundNumber,
		Request:     req,
		Gates:       set,
		Consensus:   res,
	}, nil
}

// Next derives the revised request for the round after the given summary.
func (e *Engine) Next(prev order.Request, round RoundSummary) order.Request {
	return Revise(e.policy, prev, round, round.RoundNumber+1)
}

// #endregion

// #region negotiate

// Negotiate runs up to three rounds, revising the order between rounds when
// gates block. Cancellation is honored at round boundaries only; a round in
// flight always completes, and no round has external side effects.
func (e *Engine) Negotiate(ctx context.Context, req order.Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.ID == "" {
		req.ID = order.NewID()
	}
	req.Priority = order.NormalizePriority(string(req.Priority))
	req = req.WithContext(req.EnsureContext())

	result := Result{OrderID: req.ID}
	for round := 1; round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("negotiation abandoned before round %d: %w", round, err)
		}

		set, res := e.runRound(req)
		result.Rounds = append(result.Rounds, RoundSummary{
			RoundNumber: round,
			Request:     req,
			Gates:       set,
			Consensus:   res,
		})
		result.Consensus = res

		log.Printf("[ENGINE] order=%s round=%d decision=%s avgConf=%.2f blockers=%v",
			req.ID, round, res.Decision, res.AverageConfidence, res.BlockingGates)

		if res.Approved() || round == maxRounds {
			break
		}
		req = Revise(e.policy, req, result.Rounds[len(result.Rounds)-1], round+1)
		log.Printf("[ENGINE] order=%s revised for round %d: qty=%d price=%.2f days=%d strategy=%s",
			req.ID, round+1, req.Quantity, req.RequestedPrice, req.RequestedDeliveryDays, req.Strategy())
	}

	if e.recorder != nil {
		if err := e.recorder.RecordNegotiation(ctx, result); err != nil {
			log.Printf("[ENGINE] record negotiation %s: %v", req.ID, err)
		}
	}
	return result, nil
}

// #endregion
