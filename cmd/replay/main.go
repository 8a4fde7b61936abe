package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/synklabs/ordergate/internal/negotiate"
	"github.com/synklabs/ordergate/internal/policy"
	"github.com/synklabs/ordergate/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	catalogDir := flag.String("catalog", "data", "catalog directory for the policy snapshot")
	clock := flag.String("clock", "", "fixed RFC3339 clock for delivery dates (default: fixture runs on real time)")
	jsonOut := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--catalog dir] [--clock 2026-01-02T00:00:00Z] [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	store, err := policy.Load(*catalogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalogs: %v\n", err)
		os.Exit(1)
	}

	opts := negotiate.Options{}
	if *clock != "" {
		at, err := time.Parse(time.RFC3339, *clock)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse clock: %v\n", err)
			os.Exit(2)
		}
		opts.Now = func() time.Time { return at }
	}
	engine := negotiate.NewEngine(store, opts)

	results := replay.Replay(context.Background(), engine, fixture)
	summary := replay.Summarize(results)

	if *jsonOut {
		out := struct {
			Description string              `json:"description"`
			Results     []replay.CaseResult `json:"results"`
			Summary     replay.Summary      `json:"summary"`
		}{fixture.Description, results, summary}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode results: %v\n", err)
			os.Exit(1)
		}
	} else {
		printTable(fixture, results, summary)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region table

func printTable(fixture *replay.Fixture, results []replay.CaseResult, summary replay.Summary) {
	if fixture.Description != "" {
		fmt.Println(fixture.Description)
	}
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("%-4s %-30s decision=%-8s rounds=%d price=%.2f qty=%d\n",
			status, r.Name, r.Decision, r.RoundsUsed, r.FinalPrice, r.FinalQuantity)
		for _, m := range r.Mismatches {
			fmt.Printf("       - %s\n", m)
		}
	}
	fmt.Printf("%d cases: %d passed, %d failed\n", summary.TotalCases, summary.Passed, summary.Failed)
}

// #endregion table
