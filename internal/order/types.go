package order

// #region imports
import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// #endregion

// #region priority

// Priority ranks how urgently an order must be fulfilled.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityExpedited Priority = "expedited"
	PriorityRush      Priority = "rush"
	PriorityCritical  Priority = "critical"
)

// NormalizePriority maps arbitrary input to a known priority level.
// Unknown values fall back to normal.
func NormalizePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityExpedited:
		return PriorityExpedited
	case PriorityRush:
		return PriorityRush
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// IsRush reports whether the priority carries a rush surcharge exposure.
func (p Priority) IsRush() bool {
	return p == PriorityRush || p == PriorityExpedited || p == PriorityCritical
}

// #endregion

// #region strategy

// Strategy names a production adjustment profile.
type Strategy string

const (
	StrategyBaseline    Strategy = "baseline"
	StrategyPreempt     Strategy = "preempt_and_overtime"
	StrategyPhasedSplit Strategy = "phased_split_delivery"
)

// NormalizeStrategy maps arbitrary input to a known strategy tag.
func NormalizeStrategy(raw string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyPreempt:
		return StrategyPreempt
	case StrategyPhasedSplit:
		return StrategyPhasedSplit
	default:
		return StrategyBaseline
	}
}

// #endregion

// #region revenue-goal

// RevenueGoalMode tags the margin posture for a negotiation round.
type RevenueGoalMode string

const (
	RevenueBaseline        RevenueGoalMode = "baseline"
	RevenuePremiumRecovery RevenueGoalMode = "premium_recovery"
	RevenueFloorRecovery   RevenueGoalMode = "floor_recovery"
	RevenueMarginExpansion RevenueGoalMode = "margin_expansion"
)

// RaisesMargin reports whether this mode lifts the target margin.
func (m RevenueGoalMode) RaisesMargin() bool {
	return m == RevenuePremiumRecovery || m == RevenueMarginExpansion
}

// #endregion

// #region context

// Context carries negotiation state between rounds. The original_* anchors
// are set once in round 1 and never overwritten afterwards.
type Context struct {
	OriginalRequestedPrice        float64         `json:"original_requested_price"`
	OriginalRequestedDeliveryDays int             `json:"original_requested_delivery_days"`
	OriginalQuantity              int             `json:"original_quantity"`
	RoundNumber                   int             `json:"round_number"`
	RoundGoal                     string          `json:"round_goal"`
	RevenueGoal                   string          `json:"revenue_goal,omitempty"`
	BlockingGates                 []string        `json:"blocking_agents,omitempty"`
	ProductionStrategy            Strategy        `json:"production_strategy"`
	RevenueGoalMode               RevenueGoalMode `json:"revenue_goal_mode"`
	StrategyNotes                 []string        `json:"strategy_notes,omitempty"`
	CustomerPriceCeiling          float64         `json:"customer_price_ceiling,omitempty"`
	PreviousRejectionReason       string          `json:"previous_rejection_reason,omitempty"`
}

// #endregion

// #region request

// Request is one immutable order-term proposal. Revisions produce a new
// value; a Request is never mutated in place once it enters the pipeline.
type Request struct {
	ID                    string   `json:"id"`
	ProductSKU            string   `json:"product_sku"`
	Quantity              int      `json:"quantity"`
	Customer              string   `json:"customer"`
	CustomerLocation      string   `json:"customer_location"`
	RequestedPrice        float64  `json:"requested_price"`
	RequestedDeliveryDays int      `json:"requested_delivery_days"`
	Priority              Priority `json:"priority"`
	Context               *Context `json:"negotiation_context,omitempty"`
}

// ErrValidation marks order inputs rejected before any gate runs.
var ErrValidation = errors.New("order validation failed")

// Validate checks invariants that must hold before evaluation starts.
func (r Request) Validate() error {
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, r.Quantity)
	}
	if strings.TrimSpace(r.ProductSKU) == "" {
		return fmt.Errorf("%w: product SKU is required", ErrValidation)
	}
	if r.RequestedDeliveryDays <= 0 {
		return fmt.Errorf("%w: requested delivery days must be positive, got %d", ErrValidation, r.RequestedDeliveryDays)
	}
	if r.RequestedPrice <= 0 {
		return fmt.Errorf("%w: requested price must be positive, got %.2f", ErrValidation, r.RequestedPrice)
	}
	return nil
}

// WithContext returns a copy of the request carrying the given context.
func (r Request) WithContext(ctx Context) Request {
	r.Context = &ctx
	return r
}

// EnsureContext returns the request's context, seeding round-1 anchors from
// the request itself when no context exists yet.
func (r Request) EnsureContext() Context {
	if r.Context != nil {
		ctx := *r.Context
		if ctx.OriginalRequestedPrice <= 0 {
			ctx.OriginalRequestedPrice = r.RequestedPrice
		}
		if ctx.OriginalRequestedDeliveryDays <= 0 {
			ctx.OriginalRequestedDeliveryDays = r.RequestedDeliveryDays
		}
		if ctx.OriginalQuantity <= 0 {
			ctx.OriginalQuantity = r.Quantity
		}
		if ctx.RoundNumber <= 0 {
			ctx.RoundNumber = 1
		}
		if ctx.ProductionStrategy == "" {
			ctx.ProductionStrategy = StrategyBaseline
		}
		if ctx.RevenueGoalMode == "" {
			ctx.RevenueGoalMode = RevenueBaseline
		}
		return ctx
	}
	return Context{
		OriginalRequestedPrice:        r.RequestedPrice,
		OriginalRequestedDeliveryDays: r.RequestedDeliveryDays,
		OriginalQuantity:              r.Quantity,
		RoundNumber:                   1,
		RoundGoal:                     "Evaluate the customer request as submitted.",
		ProductionStrategy:            StrategyBaseline,
		RevenueGoalMode:               RevenueBaseline,
	}
}

// Strategy returns the active production strategy, defaulting to baseline.
func (r Request) Strategy() Strategy {
	if r.Context == nil || r.Context.ProductionStrategy == "" {
		return StrategyBaseline
	}
	return r.Context.ProductionStrategy
}

// NewID generates an order identifier.
func NewID() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// #endregion
