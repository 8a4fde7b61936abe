package gates

// #region imports
import (
	"fmt"
	"sort"
	"time"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region evaluator

// LogisticsEvaluator selects and books a shipping mode for the order.
type LogisticsEvaluator struct {
	policy *policy.Store
}

// NewLogistics creates the logistics gate.
func NewLogistics(p *policy.Store) *LogisticsEvaluator {
	return &LogisticsEvaluator{policy: p}
}

// #endregion

// #region candidate

// candidate is one viable shipping option during mode ranking.
type candidate struct {
	mode          string
	carrier       policy.Carrier
	cost          float64
	transitDays   int
	totalDays     int
	meetsSchedule bool
}

// #endregion

// #region evaluate

// Evaluate picks the best shipping mode given the production schedule.
// now anchors the promised delivery date.
func (g *LogisticsEvaluator) Evaluate(req order.Request, productionDays int, now time.Time) LogisticsResult {
	res := LogisticsResult{Verdict: Verdict{Gate: Logistics}}

	location := g.policy.LocationProfile(req.CustomerLocation)
	res.LocationType = location.Type

	candidates := g.viableCandidates(req, location.Type, productionDays)
	res.Trace = append(res.Trace, ToolCall{
		Name:   "evaluate_shipping_modes",
		Detail: fmt.Sprintf("%d of %d modes viable for %s delivery.", len(candidates), len(g.policy.Logistics.ShippingModes), location.Type),
	})

	if len(candidates) == 0 {
		res.CanProceed = false
		res.Confidence = 0.62
		res.Reasoning = fmt.Sprintf("No shipping mode has a carrier able to serve a %s destination at %d units.", location.Type, req.Quantity)
		return res
	}

	// Rank: schedule-makers first, then cheaper, then more reliable.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.meetsSchedule != b.meetsSchedule {
			return a.meetsSchedule
		}
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.carrier.Reliability != b.carrier.Reliability {
			return a.carrier.Reliability > b.carrier.Reliability
		}
		return a.mode < b.mode
	})
	best := candidates[0]

	res.Mode = best.mode
	res.Carrier = best.carrier.Name
	res.ShippingCost = round2(best.cost)
	res.TransitDays = best.transitDays
	res.TotalDays = best.totalDays
	res.MeetsSchedule = best.meetsSchedule
	res.DeliveryDate = now.AddDate(0, 0, best.totalDays)
	res.CanProceed = best.meetsSchedule

	res.Trace = append(res.Trace, ToolCall{
		Name:   "book_carrier",
		Detail: fmt.Sprintf("Booked %s via %s, promised %s.", best.mode, best.carrier.Name, res.DeliveryDate.Format("2006-01-02")),
		Data:   map[string]any{"mode": best.mode, "carrier": best.carrier.Name, "total_days": best.totalDays},
	})

	if res.CanProceed {
		res.Confidence = 0.80
		res.Reasoning = fmt.Sprintf("Selected %s freight for %s delivery; total lead time is %d days.", best.mode, location.Type, best.totalDays)
	} else {
		res.Confidence = 0.62
		res.Reasoning = fmt.Sprintf("Best available option (%s) needs %d days against the requested %d.", best.mode, best.totalDays, req.RequestedDeliveryDays)
	}
	return res
}

// #endregion

// #region filtering

// viableCandidates filters modes by carrier coverage and quantity caps,
// pairing each surviving mode with its cheapest viable carrier.
func (g *LogisticsEvaluator) viableCandidates(req order.Request, locationType string, productionDays int) []candidate {
	var out []candidate
	for mode, spec := range g.policy.Logistics.ShippingModes {
		var chosen *policy.Carrier
		for _, c := range g.policy.Carriers(mode) {
			if !c.Serves(locationType, req.Quantity) {
				continue
			}
			if chosen == nil || c.FixedFee < chosen.FixedFee {
				cc := c
				chosen = &cc
			}
		}
		if chosen == nil {
			continue
		}
		totalDays := productionDays + spec.TransitDays
		out = append(out, candidate{
			mode:          mode,
			carrier:       *chosen,
			cost:          spec.CostPerUnit*float64(req.Quantity) + chosen.FixedFee,
			transitDays:   spec.TransitDays,
			totalDays:     totalDays,
			meetsSchedule: totalDays <= req.RequestedDeliveryDays,
		})
	}
	return out
}

// #endregion
