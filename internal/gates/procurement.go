package gates

// #region imports
import (
	"fmt"
	"sort"
	"strings"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region evaluator

// ProcurementEvaluator resolves BOM requirements against stock and sources
// shortfalls from the primary or alternate supplier.
type ProcurementEvaluator struct {
	policy *policy.Store
}

// NewProcurement creates the procurement gate.
func NewProcurement(p *policy.Store) *ProcurementEvaluator {
	return &ProcurementEvaluator{policy: p}
}

// #endregion

// #region evaluate

// Evaluate checks material availability for the order.
func (g *ProcurementEvaluator) Evaluate(req order.Request) ProcurementResult {
	res := ProcurementResult{Verdict: Verdict{Gate: Procurement}}

	product, ok := g.policy.Product(req.ProductSKU)
	if !ok {
		res.CanProceed = false
		res.Confidence = 0.95
		res.Reasoning = fmt.Sprintf("Product SKU %q not found in material BOM.", req.ProductSKU)
		return res
	}

	requirements, feasible := g.buildRequirements(product, req.Quantity)
	res.Requirements = requirements
	res.FeasibleQuantity = feasible
	res.Trace = append(res.Trace, ToolCall{
		Name:   "build_material_requirements",
		Detail: fmt.Sprintf("Resolved %d BOM materials for %d units.", len(requirements), req.Quantity),
	})

	var total float64
	var short []MaterialRequirement
	for _, r := range requirements {
		total += r.LineCost
		if !r.Available {
			short = append(short, r)
		}
	}
	res.TotalCost = round2(total)

	if len(short) == 0 {
		res.CanProceed = true
		res.Confidence = 0.93
		res.Reasoning = "All required materials are available in inventory."
		return res
	}

	// Shortfall path: primary supplier first, alternate as backup, each
	// subject to the lead-time + buffer rule.
	pol := g.policy.Procurement
	buffer := pol.ReplenishBufferDays
	primary := g.policy.Supplier(pol.PrimarySupplier)
	alternate := g.policy.Supplier(pol.AlternateSupplier)

	if sourced, cost := g.trySupplier(primary, short, req.RequestedDeliveryDays, buffer, &res); sourced {
		res.CanProceed = true
		res.Confidence = 0.86
		res.TotalCost = round2(total + cost)
		res.SourcedSupplier = primary.Name
		res.Reasoning = fmt.Sprintf(
			"Current inventory is short for %s, but %s can replenish the missing material within %d days and keep the order feasible.",
			shortNames(short), primary.Name, primary.LeadTimeDays)
		return res
	}
	if sourced, cost := g.trySupplier(alternate, short, req.RequestedDeliveryDays, buffer, &res); sourced {
		res.CanProceed = true
		res.Confidence = 0.82
		res.TotalCost = round2(total + cost)
		res.SourcedSupplier = alternate.Name
		res.Reasoning = fmt.Sprintf(
			"Current inventory is short for %s, but %s can replenish the shortage within %d days and support the requested schedule.",
			shortNames(short), alternate.Name, alternate.LeadTimeDays)
		return res
	}

	res.CanProceed = false
	res.Confidence = 0.90
	res.Reasoning = fmt.Sprintf(
		"Insufficient inventory for: %s. Earliest realistic replenishment is %d days.",
		shortNames(short), primary.LeadTimeDays+buffer)
	return res
}

// #endregion

// #region requirements

// buildRequirements derives one MaterialRequirement per BOM line and the
// maximum quantity immediately fulfillable from stock alone.
func (g *ProcurementEvaluator) buildRequirements(product policy.Product, quantity int) ([]MaterialRequirement, int) {
	reqs := make([]MaterialRequirement, 0, len(product.BOM))
	feasible := quantity
	for _, line := range product.BOM {
		stock, _ := g.policy.Stock(line.MaterialID)
		// Fractional requirements truncate, matching the upstream catalog
		// semantics where BOM quantities are effectively integral.
		required := int(line.QtyPerUnit * float64(quantity))
		shortfall := required - stock.Stock
		if shortfall < 0 {
			shortfall = 0
		}
		r := MaterialRequirement{
			MaterialID:     line.MaterialID,
			QtyPerUnit:     line.QtyPerUnit,
			RequiredUnits:  required,
			AvailableStock: stock.Stock,
			Shortfall:      shortfall,
			UnitCost:       stock.UnitCost,
			LineCost:       round2(float64(required) * stock.UnitCost),
			Available:      shortfall == 0,
		}
		reqs = append(reqs, r)

		if required > 0 {
			lineFeasible := int(float64(stock.Stock) * float64(quantity) / float64(required))
			if lineFeasible < feasible {
				feasible = lineFeasible
			}
		}
	}
	if feasible < 0 {
		feasible = 0
	}
	return reqs, feasible
}

// #endregion

// #region supplier-sourcing

// trySupplier checks whether a supplier can cover every shortfall within the
// delivery window. On success it records the reservation and purchase-order
// trace and returns the added sourcing cost.
func (g *ProcurementEvaluator) trySupplier(sup policy.Supplier, short []MaterialRequirement, requestedDays, buffer int, res *ProcurementResult) (bool, float64) {
	res.Trace = append(res.Trace, ToolCall{
		Name:   "query_supplier_inventory",
		Detail: fmt.Sprintf("Quoted %s for %d shortfall materials (lead time %d days).", sup.Name, len(short), sup.LeadTimeDays),
		Data:   map[string]any{"supplier": sup.Name, "lead_time_days": sup.LeadTimeDays},
	})

	for _, r := range short {
		if !sup.CanCover(r.MaterialID, r.Shortfall) {
			return false, 0
		}
	}
	if requestedDays < sup.LeadTimeDays+buffer {
		return false, 0
	}

	var cost float64
	for _, r := range short {
		cost += float64(r.Shortfall) * r.UnitCost * sup.PriceMultiplier
	}
	cost = round2(cost)

	res.Trace = append(res.Trace,
		ToolCall{
			Name:   "reserve_materials",
			Detail: fmt.Sprintf("Reserved %d materials with %s.", len(short), sup.Name),
			Data:   map[string]any{"supplier": sup.Name},
		},
		ToolCall{
			Name:   "submit_purchase_order",
			Detail: fmt.Sprintf("Purchase order to %s totals $%.2f.", sup.Name, cost),
			Data:   map[string]any{"supplier": sup.Name, "total_cost": cost},
		},
	)
	return true, cost
}

// shortNames joins sorted shortfall material IDs for reasoning strings.
func shortNames(short []MaterialRequirement) string {
	names := make([]string, 0, len(short))
	for _, r := range short {
		names = append(names, r.MaterialID)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// #endregion
