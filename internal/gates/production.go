package gates

// #region imports
import (
	"fmt"
	"math"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region evaluator

// ProductionEvaluator computes effective capacity, schedule days, and
// overtime for the order under its active strategy profile.
type ProductionEvaluator struct {
	policy *policy.Store
}

// NewProduction creates the production gate.
func NewProduction(p *policy.Store) *ProductionEvaluator {
	return &ProductionEvaluator{policy: p}
}

// #endregion

// #region evaluate

// Evaluate checks capacity and schedule feasibility.
func (g *ProductionEvaluator) Evaluate(req order.Request) ProductionResult {
	res := ProductionResult{Verdict: Verdict{Gate: Production}}

	pol := g.policy.Production
	strategy := req.Strategy()
	profile := pol.Profile(strategy)

	effective := g.effectiveWeeklyCapacity(req.ProductSKU, profile)
	res.EffectiveWeeklyCapacity = effective
	res.Trace = append(res.Trace, ToolCall{
		Name:   "check_production_capacity",
		Detail: fmt.Sprintf("Effective weekly capacity %.0f units under strategy %q.", effective, strategy),
		Data:   map[string]any{"strategy": string(strategy), "effective_capacity": effective},
	})

	days := int(math.Ceil(float64(req.Quantity)/effective*float64(pol.WorkingDaysPerWeek))) + profile.ChangeoverPenaltyDays
	if days < 5 {
		days = 5
	}
	res.ProductionDays = days

	res.CapacityOK = float64(req.Quantity) <= effective*float64(pol.MaxPlanningWeeks)
	res.ScheduleOK = days <= req.RequestedDeliveryDays
	res.CanProceed = res.CapacityOK && res.ScheduleOK

	res.OvertimeHours = g.overtimeHours(days, req.RequestedDeliveryDays, profile)
	res.OvertimeCost = round2(float64(res.OvertimeHours) * pol.OvertimeCostPerHour)
	if res.OvertimeHours > 0 {
		res.Trace = append(res.Trace, ToolCall{
			Name:   "calculate_overtime",
			Detail: fmt.Sprintf("Recommending %d overtime hours at $%.2f/hour.", res.OvertimeHours, pol.OvertimeCostPerHour),
			Data:   map[string]any{"hours": res.OvertimeHours, "cost": res.OvertimeCost},
		})
	}

	switch {
	case res.CanProceed:
		res.Confidence = 0.84
		res.Reasoning = fmt.Sprintf("Production can schedule %d units in %d days using strategy %q.", req.Quantity, days, strategy)
		res.Trace = append(res.Trace, ToolCall{
			Name:   "lock_production_schedule",
			Detail: fmt.Sprintf("Schedule locked for %d units over %d days.", req.Quantity, days),
		})
	case !res.CapacityOK:
		res.Confidence = 0.58
		res.Reasoning = fmt.Sprintf("Production load exceeds the %d-week planning window even after %q adjustments.", pol.MaxPlanningWeeks, strategy)
	default:
		res.Confidence = 0.64
		res.Reasoning = fmt.Sprintf("Production needs %d days under strategy %q, which misses the requested %d-day timeline.", days, strategy, req.RequestedDeliveryDays)
	}
	return res
}

// #endregion

// #region capacity

// effectiveWeeklyCapacity sums supporting factory lines, or falls back to
// the global weekly capacity when no line supports the SKU. Both paths are
// scaled by the strategy's capacity multiplier.
func (g *ProductionEvaluator) effectiveWeeklyCapacity(sku string, profile policy.StrategyProfile) float64 {
	mult := profile.CapacityMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	lines := g.policy.FactoryLines(sku)
	if len(lines) == 0 {
		return float64(g.policy.Production.WeeklyCapacity) * mult
	}
	var total float64
	for _, l := range lines {
		load := l.CurrentLoad
		if load < 0 {
			load = 0
		}
		if load > 1 {
			load = 1
		}
		total += float64(l.BaseWeeklyCapacity) * (1 - load) * mult
	}
	if total < 1 {
		total = 1
	}
	return total
}

// overtimeHours recommends overtime only when there is a schedule shortfall
// or the strategy itself carries a default overtime posture.
func (g *ProductionEvaluator) overtimeHours(productionDays, requestedDays int, profile policy.StrategyProfile) int {
	maxOT := g.policy.Production.MaxOvertimeHoursPerDay
	if productionDays <= requestedDays {
		return profile.DefaultOvertimeHours
	}
	hours := maxOT + profile.DefaultOvertimeHours
	if limit := maxOT + 2; hours > limit {
		hours = limit
	}
	return hours
}

// #endregion
