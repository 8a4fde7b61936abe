package gates

// #region imports
import (
	"fmt"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region evaluator

// FinanceEvaluator computes unit economics, the margin floor check, and the
// negotiated price from the upstream gate results.
type FinanceEvaluator struct {
	policy *policy.Store
}

// NewFinance creates the finance gate.
func NewFinance(p *policy.Store) *FinanceEvaluator {
	return &FinanceEvaluator{policy: p}
}

// #endregion

// #region evaluate

// Evaluate prices the order and verifies the margin floor.
func (g *FinanceEvaluator) Evaluate(req order.Request, proc ProcurementResult, prod ProductionResult, logi LogisticsResult) FinanceResult {
	res := FinanceResult{Verdict: Verdict{Gate: Finance}}

	pol := g.policy.Finance
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	q := float64(quantity)

	materialTotal := proc.TotalCost
	if materialTotal <= 0 {
		materialTotal = pol.BaseCostPerUnit * q
	}

	// Normalize the material unit cost into the policy band for the
	// quantity tier so an outlier catalog price cannot swing the deal.
	materialUnit := materialTotal / q
	capMult := g.policy.MaterialCostCapMultiplier(quantity)
	if materialUnit < pol.BaseCostPerUnit {
		materialUnit = pol.BaseCostPerUnit
	}
	if ceil := pol.BaseCostPerUnit * capMult; materialUnit > ceil {
		materialUnit = ceil
	}

	unitCost := materialUnit + logi.ShippingCost/q + prod.OvertimeCost/q
	res.Trace = append(res.Trace, ToolCall{
		Name:   "compute_unit_economics",
		Detail: fmt.Sprintf("Unit cost $%.2f (material $%.2f, shipping $%.2f, overtime $%.2f per unit).", unitCost, materialUnit, logi.ShippingCost/q, prod.OvertimeCost/q),
	})

	ctx := req.EnsureContext()
	if g.rushApplies(req, ctx) {
		surcharge := pol.RushSurchargeRate * unitCost
		unitCost += surcharge
		res.Trace = append(res.Trace, ToolCall{
			Name:   "calculate_rush_surcharge",
			Detail: fmt.Sprintf("Rush surcharge $%.2f/unit at rate %.0f%%.", surcharge, pol.RushSurchargeRate*100),
		})
	}
	res.UnitCost = unitCost

	margin := pol.TargetMargin
	customer := g.policy.CustomerProfile(req.Customer)
	if customer.Tier == "strategic" && quantity <= 100 {
		margin = pol.MarginFloor
	}
	if ctx.RevenueGoalMode.RaisesMargin() {
		if lifted := pol.TargetMargin + 0.02; margin < lifted {
			margin = lifted
		}
	}

	discount := g.policy.VolumeDiscountRate(quantity)
	res.DiscountRate = discount
	res.MinimumViablePrice = round2(unitCost * (1 + margin) * (1 - discount))

	res.CustomerCeiling = round2(req.RequestedPrice * (1 + customer.MaxPriceUplift))
	compromise := res.MinimumViablePrice
	if req.RequestedPrice > compromise {
		compromise = req.RequestedPrice
	}
	if compromise > res.CustomerCeiling {
		compromise = res.CustomerCeiling
	}
	final := compromise
	if req.RequestedPrice > final {
		final = req.RequestedPrice
	}
	res.FinalPrice = round2(final)
	res.TotalDealValue = round2(res.FinalPrice * q)
	res.Trace = append(res.Trace, ToolCall{
		Name:   "negotiate_price",
		Detail: fmt.Sprintf("Requested $%.2f, minimum viable $%.2f, ceiling $%.2f, settled $%.2f.", req.RequestedPrice, res.MinimumViablePrice, res.CustomerCeiling, res.FinalPrice),
		Data:   map[string]any{"discount_rate": discount, "total_deal_value": res.TotalDealValue},
	})

	res.Margin = (res.FinalPrice - unitCost) / res.FinalPrice
	res.CanProceed = res.Margin >= pol.MarginFloor
	res.Trace = append(res.Trace, ToolCall{
		Name:   "verify_final_margin",
		Detail: fmt.Sprintf("Margin %.1f%% against floor %.1f%% at $%.2f/unit.", res.Margin*100, pol.MarginFloor*100, res.FinalPrice),
		Data:   map[string]any{"margin": res.Margin, "meets_floor": res.CanProceed},
	})

	if res.CanProceed {
		res.Confidence = 0.84
	} else {
		res.Confidence = 0.66
	}
	res.Reasoning = fmt.Sprintf(
		"Minimum viable commercial price is $%.2f/unit; current negotiation target is $%.2f/unit.",
		res.MinimumViablePrice, req.RequestedPrice)
	if !res.CanProceed {
		res.Reasoning = fmt.Sprintf(
			"Margin %.1f%% at $%.2f/unit is below the %.0f%% floor; minimum viable price is $%.2f/unit.",
			res.Margin*100, res.FinalPrice, pol.MarginFloor*100, res.MinimumViablePrice)
	}
	return res
}

// #endregion

// #region rush

// rushApplies reports whether the rush surcharge triggers: a rush-class
// priority combined with a tight window or an aggressive strategy.
func (g *FinanceEvaluator) rushApplies(req order.Request, ctx order.Context) bool {
	if !req.Priority.IsRush() {
		return false
	}
	if req.RequestedDeliveryDays <= 14 {
		return true
	}
	return ctx.ProductionStrategy == order.StrategyPreempt || ctx.ProductionStrategy == order.StrategyPhasedSplit
}

// #endregion
