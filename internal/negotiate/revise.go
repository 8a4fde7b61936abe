package negotiate

// #region imports
import (
	"fmt"
	"math"

	"github.com/synklabs/ordergate/internal/gates"
	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region revision-state

// revision accumulates the next round's target terms while the per-gate
// rules fire. Rules only move targets monotonically (max days, max price,
// min quantity), so firing order never produces a worse offer.
type revision struct {
	price    float64
	days     int
	quantity int
	priority order.Priority
	strategy order.Strategy
	mode     order.RevenueGoalMode
	goal     string
	revenue  string
	notes    []string
}

// inputs bundles everything the rules read: anchors, the previous round's
// gate outputs, and the customer's commercial tolerances.
type inputs struct {
	anchorPrice    float64
	anchorDays     int
	anchorQuantity int
	requestedQty   int
	productionDays int
	logisticsDays  int
	financeFloor   float64
	feasibleQty    int
	ceiling        float64
	bufferDays     int
	leadWithBuffer int
}

func (r *revision) note(text string) { r.notes = append(r.notes, text) }

func (r *revision) raisePrice(candidates ...float64) {
	for _, c := range candidates {
		if c > r.price {
			r.price = c
		}
	}
}

func (r *revision) extendDays(candidates ...int) {
	for _, c := range candidates {
		if c > r.days {
			r.days = c
		}
	}
}

// #endregion

// #region rule-tables

// revisionRule adjusts the next round's targets for one blocking gate.
type revisionRule func(r *revision, in inputs)

var round2Rules = map[gates.ID]revisionRule{
	gates.Procurement: func(r *revision, in inputs) {
		r.extendDays(in.leadWithBuffer)
		r.note("Procurement is asked to source missing material externally instead of limiting the decision to current stock.")
	},
	gates.Production: ruleExpediteRound2,
	gates.Logistics:  ruleExpediteRound2,
	gates.Finance: func(r *revision, in inputs) {
		r.raisePrice(in.financeFloor, in.anchorPrice*1.05)
		if r.mode == order.RevenueBaseline {
			r.mode = order.RevenueFloorRecovery
		}
		r.note("Finance is asked to recover the margin floor through a revised counter-offer.")
	},
	gates.Sales: func(r *revision, in inputs) {
		r.raisePrice(in.financeFloor)
		if r.price > in.ceiling {
			r.price = in.ceiling
		}
		r.extendDays(in.anchorDays + in.bufferDays)
		r.note("Sales is asked to test a premium-but-defensible offer against customer tolerance.")
	},
}

// ruleExpediteRound2 handles a production or logistics block: preempt other
// work, run overtime, and charge a premium for the expedite.
func ruleExpediteRound2(r *revision, in inputs) {
	if r.strategy == order.StrategyPreempt {
		return // already applied for the other gate
	}
	r.strategy = order.StrategyPreempt
	r.priority = order.PriorityCritical
	operational := in.productionDays
	if in.logisticsDays > operational {
		operational = in.logisticsDays
	}
	if r.days > operational {
		r.days = operational
	}
	if r.days < in.anchorDays {
		r.days = in.anchorDays
	}
	r.raisePrice(in.financeFloor*1.05, in.anchorPrice*1.08)
	r.mode = order.RevenuePremiumRecovery
	r.revenue = "Use expedited premium to offset preemption and overtime while keeping the full order."
	r.note("Production is asked to evaluate stopping lower-priority work, reallocating slots, and running overtime for this order.")
}

var round3Rules = map[gates.ID]revisionRule{
	gates.Procurement: func(r *revision, in inputs) {
		if in.feasibleQty <= 0 {
			return
		}
		if in.feasibleQty < r.quantity {
			r.quantity = in.feasibleQty
			r.note(fmt.Sprintf("Immediate allocation is reduced to %d units to avoid a full rejection while supply is replenished.", r.quantity))
		}
	},
	gates.Production: func(r *revision, in inputs) {
		r.extendDays(in.productionDays + 3)
		r.note("Production is asked for a phased delivery schedule instead of a single completion date.")
	},
	gates.Sales: func(r *revision, in inputs) {
		if r.price > in.ceiling {
			r.price = in.ceiling
		}
		r.extendDays(in.anchorDays + in.bufferDays + 1)
		r.note("Price is capped at customer tolerance; any further improvement must come from schedule, not discounting.")
	},
}

// #endregion

// #region revise

// Revise derives the next round's request from the previous round's outcome.
// The returned request carries a context with round anchors, blocking gates,
// and the strategy notes explaining each adjustment.
func Revise(p *policy.Store, prev order.Request, round RoundSummary, nextRound int) order.Request {
	ctx := prev.EnsureContext()
	set := round.Gates
	customer := p.CustomerProfile(prev.Customer)

	in := inputs{
		anchorPrice:    ctx.OriginalRequestedPrice,
		anchorDays:     ctx.OriginalRequestedDeliveryDays,
		anchorQuantity: ctx.OriginalQuantity,
		requestedQty:   prev.Quantity,
		productionDays: set.Production.ProductionDays,
		logisticsDays:  set.Logistics.TotalDays,
		financeFloor:   set.Finance.FinalPrice,
		feasibleQty:    set.Procurement.FeasibleQuantity,
		bufferDays:     customer.AcceptableDeliveryBufferDays,
		leadWithBuffer: p.Procurement.PrimaryLeadTimeDays + 2,
	}
	if in.productionDays <= 0 {
		in.productionDays = prev.RequestedDeliveryDays
	}
	if in.logisticsDays <= 0 {
		in.logisticsDays = in.productionDays + 2
		if in.logisticsDays < 1 {
			in.logisticsDays = 1
		}
	}
	if in.financeFloor <= 0 {
		in.financeFloor = prev.RequestedPrice
	}
	in.ceiling = math.Round(in.anchorPrice*(1+customer.MaxPriceUplift)*100) / 100

	r := revision{
		price:    prev.RequestedPrice,
		days:     prev.RequestedDeliveryDays,
		quantity: prev.Quantity,
		priority: prev.Priority,
		strategy: order.StrategyBaseline,
		mode:     order.RevenueBaseline,
		goal:     "Resolve blockers while preserving full order value.",
		revenue:  "Protect margin while improving the customer offer.",
	}
	r.extendDays(in.productionDays, in.logisticsDays)

	rules := round2Rules
	if nextRound >= 3 {
		rules = round3Rules
		r.goal = "Present the final viable offer with explicit revenue protection."
		r.revenue = "Maximize contribution margin on the final feasible deal."
		r.mode = order.RevenueMarginExpansion
		r.strategy = order.StrategyPhasedSplit
		r.priority = order.PriorityCritical
		extra := in.bufferDays + 1
		if extra < 3 {
			extra = 3
		}
		r.extendDays(in.anchorDays+extra, in.productionDays+2)
		r.raisePrice(in.financeFloor*1.08, in.anchorPrice*1.10)
		r.note("Final round asks operations to lock committed capacity and protect the account margin.")
	}

	blockers := round.Consensus.BlockingGates
	for _, id := range gates.Order {
		if !contains(blockers, string(id)) {
			continue
		}
		if rule, ok := rules[id]; ok {
			rule(&r, in)
		}
	}
	if len(r.notes) == 0 {
		if nextRound >= 3 {
			r.note("Final round converts aligned agent positions into a firm customer-ready proposal.")
		} else {
			r.note("Round 2 keeps the order intact and validates whether a premium rush plan is acceptable.")
		}
	}

	// Hard clamps: price never drops below the round-1 ask, quantity never
	// grows past the original, and both stay positive.
	if r.price < in.anchorPrice {
		r.price = in.anchorPrice
	}
	if r.quantity > in.anchorQuantity {
		r.quantity = in.anchorQuantity
	}
	if r.quantity < 1 {
		r.quantity = 1
	}

	next := prev
	next.Quantity = r.quantity
	next.RequestedPrice = math.Round(r.price*100) / 100
	next.RequestedDeliveryDays = r.days
	next.Priority = r.priority
	return next.WithContext(order.Context{
		OriginalRequestedPrice:        in.anchorPrice,
		OriginalRequestedDeliveryDays: in.anchorDays,
		OriginalQuantity:              in.anchorQuantity,
		RoundNumber:                   nextRound,
		RoundGoal:                     r.goal,
		RevenueGoal:                   r.revenue,
		RevenueGoalMode:               r.mode,
		ProductionStrategy:            r.strategy,
		BlockingGates:                 append([]string(nil), blockers...),
		StrategyNotes:                 r.notes,
		CustomerPriceCeiling:          in.ceiling,
		PreviousRejectionReason:       round.Consensus.RejectionReason,
	})
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// #endregion
