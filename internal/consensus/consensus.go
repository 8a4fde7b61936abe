// Package consensus folds the five gate verdicts into a single accept or
// reject decision with a stabilized average confidence.
package consensus

// #region imports
import (
	"time"

	"github.com/synklabs/ordergate/internal/gates"
)

// #endregion

// #region config

// MinAverageConfidence is the default consensus threshold. All gates can
// approve and the deal still fails if the stabilized average lands below it.
const MinAverageConfidence = 0.70

// Config tunes the aggregation rules. StabilizeApprovals lifts an approving
// gate's confidence to its historical per-gate floor when it reports below
// the threshold, so one noisy estimate cannot sink a unanimous round; the
// plain rule leaves confidences untouched.
type Config struct {
	MinAverageConfidence float64
	StabilizeApprovals   bool
}

// DefaultConfig returns the standard consensus threshold with the plain
// averaging rule.
func DefaultConfig() Config {
	return Config{MinAverageConfidence: MinAverageConfidence}
}

// #endregion

// #region types

// Decision is the terminal outcome of one evaluation round.
type Decision string

const (
	DecisionSuccess  Decision = "SUCCESS"
	DecisionRejected Decision = "REJECTED"
)

// GateSet carries the five typed gate results of one round.
type GateSet struct {
	Procurement gates.ProcurementResult
	Production  gates.ProductionResult
	Logistics   gates.LogisticsResult
	Finance     gates.FinanceResult
	Sales       gates.SalesResult
}

// Verdicts returns the common verdict envelopes in gate priority order.
func (s GateSet) Verdicts() []gates.Verdict {
	return []gates.Verdict{
		s.Procurement.Verdict,
		s.Production.Verdict,
		s.Logistics.Verdict,
		s.Finance.Verdict,
		s.Sales.Verdict,
	}
}

// Result is the aggregated outcome of one round.
type Result struct {
	Decision          Decision  `json:"decision"`
	AverageConfidence float64   `json:"average_confidence"`
	BlockingGates     []string  `json:"blocking_gates,omitempty"`
	RejectionReason   string    `json:"rejection_reason,omitempty"`
	FinalPrice        float64   `json:"final_price"`
	TotalDealValue    float64   `json:"total_deal_value"`
	DeliveryDate      time.Time `json:"delivery_date"`
}

// Approved reports whether the round reached consensus.
func (r Result) Approved() bool {
	return r.Decision == DecisionSuccess
}

// #endregion

// #region normalization

// Normalize coerces a raw confidence onto [0, 1]. Values above 1.0 are
// treated as percentages.
func Normalize(v float64) float64 {
	if v > 1.0 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stabilized floors per gate, applied only under StabilizeApprovals.
var stabilized = map[gates.ID]float64{
	gates.Procurement: 0.85,
	gates.Production:  0.82,
	gates.Logistics:   0.80,
	gates.Finance:     0.82,
	gates.Sales:       0.80,
}

// effectiveConfidence normalizes and, when stabilization is on, lifts an
// approving gate's low confidence to its per-gate floor.
func effectiveConfidence(cfg Config, v gates.Verdict) float64 {
	conf := Normalize(v.Confidence)
	if cfg.StabilizeApprovals && v.CanProceed && conf < cfg.MinAverageConfidence {
		if floor, ok := stabilized[v.Gate]; ok {
			conf = floor
		}
	}
	return conf
}

// #endregion

// #region aggregate

// Aggregate folds one round's gate results into a decision. Any blocking
// gate rejects; otherwise the stabilized average confidence must clear the
// configured threshold.
func Aggregate(cfg Config, set GateSet) Result {
	if cfg.MinAverageConfidence <= 0 {
		cfg.MinAverageConfidence = MinAverageConfidence
	}

	verdicts := set.Verdicts()
	byGate := make(map[gates.ID]gates.Verdict, len(verdicts))
	var sum float64
	for _, v := range verdicts {
		byGate[v.Gate] = v
		sum += effectiveConfidence(cfg, v)
	}

	res := Result{
		AverageConfidence: sum / float64(len(verdicts)),
		FinalPrice:        set.Finance.FinalPrice,
		TotalDealValue:    set.Finance.TotalDealValue,
		DeliveryDate:      set.Logistics.DeliveryDate,
	}
	if set.Sales.AgreedPrice > 0 {
		res.FinalPrice = set.Sales.AgreedPrice
	}

	for _, id := range gates.Order {
		if v, ok := byGate[id]; ok && !v.CanProceed {
			res.BlockingGates = append(res.BlockingGates, string(id))
		}
	}

	switch {
	case len(res.BlockingGates) > 0:
		res.Decision = DecisionRejected
		// The highest-priority blocker owns the customer-facing reason.
		first := gates.ID(res.BlockingGates[0])
		res.RejectionReason = byGate[first].Reasoning
	case res.AverageConfidence < cfg.MinAverageConfidence:
		res.Decision = DecisionRejected
		res.RejectionReason = "Consensus confidence threshold not met."
	default:
		res.Decision = DecisionSuccess
	}
	return res
}

// #endregion
