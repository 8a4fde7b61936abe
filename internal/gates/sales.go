package gates

// #region imports
import (
	"fmt"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

// #endregion

// #region evaluator

// SalesEvaluator models customer tolerance against the original request
// anchors and decides whether the priced terms are acceptable.
type SalesEvaluator struct {
	policy *policy.Store
}

// NewSales creates the sales gate.
func NewSales(p *policy.Store) *SalesEvaluator {
	return &SalesEvaluator{policy: p}
}

// #endregion

// #region evaluate

// Evaluate checks the finance-priced terms against the customer's uplift
// tolerance and delivery buffer. Anchors come from the round-1 request, not
// the current revision, so repeated revisions cannot ratchet tolerance.
func (g *SalesEvaluator) Evaluate(req order.Request, fin FinanceResult, logi LogisticsResult) SalesResult {
	res := SalesResult{Verdict: Verdict{Gate: Sales}}

	ctx := req.EnsureContext()
	anchorPrice := ctx.OriginalRequestedPrice
	if anchorPrice <= 0 {
		anchorPrice = req.RequestedPrice
	}
	anchorDays := ctx.OriginalRequestedDeliveryDays
	if anchorDays <= 0 {
		anchorDays = req.RequestedDeliveryDays
	}

	customer := g.policy.CustomerProfile(req.Customer)
	proposed := fin.FinalPrice

	res.PriceUplift = (proposed - anchorPrice) / anchorPrice
	if slip := req.RequestedDeliveryDays - anchorDays; slip > 0 {
		res.DeliverySlipDays = slip
	}

	priceOK := res.PriceUplift <= customer.MaxPriceUplift
	deliveryOK := res.DeliverySlipDays <= customer.AcceptableDeliveryBufferDays
	ceiling := round2(anchorPrice * (1 + customer.MaxPriceUplift))

	res.Trace = append(res.Trace, ToolCall{
		Name:   "assess_customer_tolerance",
		Detail: fmt.Sprintf("Tier %s allows %.0f%% uplift and %d buffer days; proposal carries %.1f%% uplift and %d slip days.", customer.Tier, customer.MaxPriceUplift*100, customer.AcceptableDeliveryBufferDays, res.PriceUplift*100, res.DeliverySlipDays),
		Data:   map[string]any{"price_within_tolerance": priceOK, "delivery_within_tolerance": deliveryOK},
	})

	switch {
	case priceOK && deliveryOK:
		res.AgreedPrice = proposed
		res.AcceptanceLikelihood = 0.9
	case priceOK && !deliveryOK:
		res.AgreedPrice = proposed
		res.AcceptanceLikelihood = 0.65
	default:
		// Price broke tolerance. Counter by moderating the proposal back
		// toward the anchor instead of walking away outright.
		counter := round2(anchorPrice * 1.25)
		if proposed > counter {
			counter = round2((proposed + anchorPrice) / 2)
		}
		res.CounterOffer = counter
		res.AgreedPrice = counter
		if res.AgreedPrice > ceiling {
			res.AgreedPrice = ceiling
		}
		res.AcceptanceLikelihood = 0.5
		res.Trace = append(res.Trace, ToolCall{
			Name:   "prepare_counter_offer",
			Detail: fmt.Sprintf("Countering $%.2f/unit against proposed $%.2f/unit (anchor $%.2f).", counter, proposed, anchorPrice),
		})
	}

	res.Confidence = res.AcceptanceLikelihood
	res.CanProceed = res.AgreedPrice <= ceiling && res.AcceptanceLikelihood >= 0.7

	switch {
	case res.CanProceed:
		res.Reasoning = fmt.Sprintf(
			"Customer %q is expected to accept $%.2f/unit with delivery in %d days.",
			req.Customer, res.AgreedPrice, logi.TotalDays)
	case !priceOK:
		res.Reasoning = fmt.Sprintf(
			"Proposed price $%.2f/unit exceeds the customer ceiling of $%.2f/unit; counter-offer is $%.2f/unit.",
			proposed, ceiling, res.CounterOffer)
	default:
		res.Reasoning = fmt.Sprintf(
			"Delivery slips %d days past the customer's %d-day buffer; acceptance is uncertain.",
			res.DeliverySlipDays, customer.AcceptableDeliveryBufferDays)
	}
	return res
}

// #endregion
