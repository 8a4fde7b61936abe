package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/synklabs/ordergate/internal/audit"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ordergate.db")
	last := flag.Int("last", 20, "show N most recent negotiations")
	orderID := flag.String("order", "", "show full round history for one order")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ordergate.db [--last N] [--order id] [--json]")
		os.Exit(2)
	}

	store, err := audit.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if *orderID != "" {
		err = runDetailMode(ctx, store, *orderID, *jsonOut)
	} else {
		err = runListMode(ctx, store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(ctx context.Context, store *audit.Store, last int, jsonOut bool) error {
	list, err := store.ListRecent(ctx, last)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "no negotiations found")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	fmt.Printf("%-14s %-20s %-14s %-9s %7s %10s %6s\n",
		"ORDER", "CUSTOMER", "SKU", "DECISION", "PRICE", "DEAL", "ROUNDS")
	for _, sum := range list {
		fmt.Printf("%-14s %-20s %-14s %-9s %7.2f %10.2f %6d\n",
			sum.OrderID, truncate(sum.Customer, 20), sum.ProductSKU, sum.Decision,
			sum.FinalPrice, sum.DealValue, sum.RoundsUsed)
		if sum.Rejection != "" {
			fmt.Printf("    rejected: %s\n", sum.Rejection)
		}
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(ctx context.Context, store *audit.Store, orderID string, jsonOut bool) error {
	rounds, err := store.NegotiationDetail(ctx, orderID)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		return fmt.Errorf("no negotiation found for %s", orderID)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rounds)
	}

	for _, round := range rounds {
		fmt.Printf("round %d: %s (avg confidence %.2f)\n", round.RoundNumber, round.Decision, round.AvgConfidence)
		if len(round.Blockers) > 0 {
			fmt.Printf("  blockers: %s\n", strings.Join(round.Blockers, ", "))
		}
		for _, v := range round.Verdicts {
			mark := "+"
			if !v.CanProceed {
				mark = "-"
			}
			fmt.Printf("  %s %-12s %.2f  %s\n", mark, v.Gate, v.Confidence, v.Reasoning)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// #endregion detail-mode
