// Package audit persists finished negotiations to SQLite so past decisions
// can be inspected and replayed.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synklabs/ordergate/internal/negotiate"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS negotiations (
	order_id       TEXT PRIMARY KEY,
	customer       TEXT NOT NULL,
	product_sku    TEXT NOT NULL,
	decision       TEXT NOT NULL,
	final_price    REAL NOT NULL,
	deal_value     REAL NOT NULL,
	rounds_used    INTEGER NOT NULL,
	rejection      TEXT,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rounds (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id       TEXT NOT NULL,
	round_number   INTEGER NOT NULL,
	request_json   TEXT NOT NULL,
	decision       TEXT NOT NULL,
	avg_confidence REAL NOT NULL,
	blockers_json  TEXT,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (order_id) REFERENCES negotiations(order_id)
);

CREATE TABLE IF NOT EXISTS verdicts (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id       TEXT NOT NULL,
	round_number   INTEGER NOT NULL,
	gate           TEXT NOT NULL,
	can_proceed    INTEGER NOT NULL,
	confidence     REAL NOT NULL,
	reasoning      TEXT NOT NULL,
	trace_json     TEXT,
	FOREIGN KEY (order_id) REFERENCES negotiations(order_id)
);
`

// #endregion schema

// #region store

// Store writes negotiation history to SQLite. It satisfies
// negotiate.Recorder.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region record

// RecordNegotiation writes the negotiation, its rounds, and every gate
// verdict in one transaction.
func (s *Store) RecordNegotiation(ctx context.Context, res negotiate.Result) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	final := res.FinalRequest()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO negotiations (order_id, customer, product_sku, decision, final_price, deal_value, rounds_used, rejection, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET
		   decision = excluded.decision,
		   final_price = excluded.final_price,
		   deal_value = excluded.deal_value,
		   rounds_used = excluded.rounds_used,
		   rejection = excluded.rejection`,
		res.OrderID, final.Customer, final.ProductSKU, string(res.Consensus.Decision),
		res.Consensus.FinalPrice, res.Consensus.TotalDealValue, len(res.Rounds),
		res.Consensus.RejectionReason, now,
	)
	if err != nil {
		return fmt.Errorf("insert negotiation: %w", err)
	}

	for _, round := range res.Rounds {
		reqJSON, err := json.Marshal(round.Request)
		if err != nil {
			return fmt.Errorf("marshal round %d request: %w", round.RoundNumber, err)
		}
		blockersJSON, err := json.Marshal(round.Consensus.BlockingGates)
		if err != nil {
			return fmt.Errorf("marshal round %d blockers: %w", round.RoundNumber, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rounds (order_id, round_number, request_json, decision, avg_confidence, blockers_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.OrderID, round.RoundNumber, string(reqJSON), string(round.Consensus.Decision),
			round.Consensus.AverageConfidence, string(blockersJSON), now,
		)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", round.RoundNumber, err)
		}

		for _, v := range round.Gates.Verdicts() {
			traceJSON, err := json.Marshal(v.Trace)
			if err != nil {
				return fmt.Errorf("marshal %s trace: %w", v.Gate, err)
			}
			proceed := 0
			if v.CanProceed {
				proceed = 1
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO verdicts (order_id, round_number, gate, can_proceed, confidence, reasoning, trace_json)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.OrderID, round.RoundNumber, string(v.Gate), proceed, v.Confidence, v.Reasoning, string(traceJSON),
			)
			if err != nil {
				return fmt.Errorf("insert %s verdict: %w", v.Gate, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion record

// #region queries

// Summary is one row of the negotiation history listing.
type Summary struct {
	OrderID    string    `json:"order_id"`
	Customer   string    `json:"customer"`
	ProductSKU string    `json:"product_sku"`
	Decision   string    `json:"decision"`
	FinalPrice float64   `json:"final_price"`
	DealValue  float64   `json:"deal_value"`
	RoundsUsed int       `json:"rounds_used"`
	Rejection  string    `json:"rejection,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListRecent returns the most recent negotiations, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, customer, product_sku, decision, final_price, deal_value, rounds_used, rejection, created_at
		 FROM negotiations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list negotiations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var rejection sql.NullString
		var created string
		if err := rows.Scan(&sum.OrderID, &sum.Customer, &sum.ProductSKU, &sum.Decision,
			&sum.FinalPrice, &sum.DealValue, &sum.RoundsUsed, &rejection, &created); err != nil {
			return nil, fmt.Errorf("scan negotiation: %w", err)
		}
		sum.Rejection = rejection.String
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// RoundRecord is one persisted round of a negotiation.
type RoundRecord struct {
	RoundNumber   int             `json:"round_number"`
	RequestJSON   json.RawMessage `json:"request"`
	Decision      string          `json:"decision"`
	AvgConfidence float64         `json:"avg_confidence"`
	Blockers      []string        `json:"blockers,omitempty"`
	Verdicts      []VerdictRecord `json:"verdicts"`
}

// VerdictRecord is one persisted gate verdict.
type VerdictRecord struct {
	Gate       string          `json:"gate"`
	CanProceed bool            `json:"can_proceed"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	TraceJSON  json.RawMessage `json:"trace,omitempty"`
}

// NegotiationDetail loads the full round history for one order.
func (s *Store) NegotiationDetail(ctx context.Context, orderID string) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round_number, request_json, decision, avg_confidence, blockers_json
		 FROM rounds WHERE order_id = ? ORDER BY round_number`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		var reqJSON, blockersJSON string
		if err := rows.Scan(&rec.RoundNumber, &reqJSON, &rec.Decision, &rec.AvgConfidence, &blockersJSON); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rec.RequestJSON = json.RawMessage(reqJSON)
		if blockersJSON != "" {
			if err := json.Unmarshal([]byte(blockersJSON), &rec.Blockers); err != nil {
				return nil, fmt.Errorf("decode round %d blockers: %w", rec.RoundNumber, err)
			}
		}
		rounds = append(rounds, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rounds {
		verdicts, err := s.roundVerdicts(ctx, orderID, rounds[i].RoundNumber)
		if err != nil {
			return nil, err
		}
		rounds[i].Verdicts = verdicts
	}
	return rounds, nil
}

func (s *Store) roundVerdicts(ctx context.Context, orderID string, round int) ([]VerdictRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gate, can_proceed, confidence, reasoning, trace_json
		 FROM verdicts WHERE order_id = ? AND round_number = ? ORDER BY id`, orderID, round)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var rec VerdictRecord
		var proceed int
		var trace sql.NullString
		if err := rows.Scan(&rec.Gate, &proceed, &rec.Confidence, &rec.Reasoning, &trace); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		rec.CanProceed = proceed == 1
		if trace.Valid {
			rec.TraceJSON = json.RawMessage(trace.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion queries
