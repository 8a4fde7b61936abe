package gates

// #region imports
import (
	"math"
	"time"
)

// #endregion

// #region gate-id

// ID names one of the five functional gates.
type ID string

const (
	Procurement ID = "procurement"
	Production  ID = "production"
	Logistics   ID = "logistics"
	Finance     ID = "finance"
	Sales       ID = "sales"
)

// Order is the fixed gate priority used for pipeline sequencing and for
// picking the rejection reason when more than one gate blocks.
var Order = []ID{Procurement, Production, Logistics, Finance, Sales}

// #endregion

// #region verdict

// Verdict is the common decision envelope every gate produces.
type Verdict struct {
	Gate       ID         `json:"gate"`
	CanProceed bool       `json:"can_proceed"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Trace      []ToolCall `json:"tool_results,omitempty"`
}

// ToolCall is one simulated side-effect recorded for audit. The core has no
// real reservation or booking effects; the trace documents what a live
// integration would have done.
type ToolCall struct {
	Name   string         `json:"name"`
	Detail string         `json:"detail"`
	Data   map[string]any `json:"data,omitempty"`
}

// #endregion

// #region material-requirement

// MaterialRequirement is the per-material resolution of BOM vs. stock.
// Derived fresh on every evaluation, never persisted.
type MaterialRequirement struct {
	MaterialID     string  `json:"material_id"`
	QtyPerUnit     float64 `json:"qty_per_unit"`
	RequiredUnits  int     `json:"required"`
	AvailableStock int     `json:"available"`
	Shortfall      int     `json:"shortfall"`
	UnitCost       float64 `json:"unit_cost"`
	LineCost       float64 `json:"line_cost"`
	Available      bool    `json:"is_available"`
}

// #endregion

// #region gate-results

// ProcurementResult reports material availability and sourcing cost.
type ProcurementResult struct {
	Verdict
	TotalCost        float64               `json:"total_cost"`
	Requirements     []MaterialRequirement `json:"material_availability"`
	SourcedSupplier  string                `json:"sourced_supplier,omitempty"`
	FeasibleQuantity int                   `json:"feasible_quantity"`
}

// ProductionResult reports schedule and capacity feasibility.
type ProductionResult struct {
	Verdict
	ProductionDays          int     `json:"production_days"`
	OvertimeHours           int     `json:"overtime_hours"`
	OvertimeCost            float64 `json:"overtime_cost"`
	EffectiveWeeklyCapacity float64 `json:"effective_weekly_capacity"`
	CapacityOK              bool    `json:"capacity_ok"`
	ScheduleOK              bool    `json:"schedule_ok"`
}

// LogisticsResult reports the selected shipping plan.
type LogisticsResult struct {
	Verdict
	LocationType  string    `json:"location_type"`
	Mode          string    `json:"shipping_mode"`
	Carrier       string    `json:"carrier"`
	ShippingCost  float64   `json:"shipping_cost"`
	TransitDays   int       `json:"transit_days"`
	TotalDays     int       `json:"total_days"`
	DeliveryDate  time.Time `json:"delivery_date"`
	MeetsSchedule bool      `json:"meets_schedule"`
}

// FinanceResult reports unit economics and the negotiated price.
type FinanceResult struct {
	Verdict
	UnitCost           float64 `json:"unit_cost"`
	MinimumViablePrice float64 `json:"minimum_viable_price"`
	FinalPrice         float64 `json:"final_price"`
	Margin             float64 `json:"margin"`
	DiscountRate       float64 `json:"discount_rate"`
	TotalDealValue     float64 `json:"total_deal_value"`
	CustomerCeiling    float64 `json:"customer_ceiling"`
}

// SalesResult reports customer tolerance and the agreed or countered price.
type SalesResult struct {
	Verdict
	AgreedPrice          float64 `json:"agreed_price"`
	CounterOffer         float64 `json:"counter_offer"`
	AcceptanceLikelihood float64 `json:"acceptance_likelihood"`
	PriceUplift          float64 `json:"price_uplift"`
	DeliverySlipDays     int     `json:"delivery_slip_days"`
}

// #endregion

// #region helpers

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// #endregion
