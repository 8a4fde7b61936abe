package policy

import "github.com/synklabs/ordergate/internal/order"

// #region procurement

// ProcurementPolicy configures supplier sourcing for material shortfalls.
type ProcurementPolicy struct {
	PrimarySupplier       string `json:"primary_supplier"`
	PrimaryLeadTimeDays   int    `json:"primary_lead_time_days"`
	AlternateSupplier     string `json:"alternate_supplier"`
	AlternateLeadTimeDays int    `json:"alternate_lead_time_days"`
	ReplenishBufferDays   int    `json:"replenish_buffer_days"`
}

// #endregion

// #region production

// StrategyProfile adjusts capacity and overtime for a named production strategy.
type StrategyProfile struct {
	CapacityMultiplier    float64 `json:"capacity_multiplier"`
	ChangeoverPenaltyDays int     `json:"changeover_penalty_days"`
	DefaultOvertimeHours  int     `json:"default_overtime_hours"`
}

// ProductionPolicy configures factory planning limits.
type ProductionPolicy struct {
	WeeklyCapacity         int                                `json:"weekly_capacity"`
	StandardLeadTimeDays   int                                `json:"standard_lead_time_days"`
	MaxOvertimeHoursPerDay int                                `json:"max_overtime_hours_per_day"`
	WorkingDaysPerWeek     int                                `json:"working_days_per_week"`
	MaxPlanningWeeks       int                                `json:"max_planning_weeks"`
	OvertimeCostPerHour    float64                            `json:"overtime_cost_per_hour"`
	StrategyProfiles       map[order.Strategy]StrategyProfile `json:"strategy_profiles"`
}

// Profile returns the strategy profile for the tag, falling back to baseline.
func (p ProductionPolicy) Profile(s order.Strategy) StrategyProfile {
	if prof, ok := p.StrategyProfiles[s]; ok {
		return prof
	}
	if prof, ok := p.StrategyProfiles[order.StrategyBaseline]; ok {
		return prof
	}
	return StrategyProfile{CapacityMultiplier: 1.0}
}

// #endregion

// #region logistics

// ShippingMode describes one freight option.
type ShippingMode struct {
	CostPerUnit float64 `json:"cost_per_unit"`
	TransitDays int     `json:"transit_days"`
}

// LocationProfile classifies a destination.
type LocationProfile struct {
	Type       string `json:"type"`
	DistanceKM int    `json:"distance_km"`
}

// LogisticsPolicy configures shipping modes and destination classification.
type LogisticsPolicy struct {
	ShippingModes    map[string]ShippingMode    `json:"shipping_modes"`
	LocationProfiles map[string]LocationProfile `json:"location_profiles"`
	DefaultMode      string                     `json:"default_mode"`
}

// #endregion

// #region finance

// DiscountTier is one step of the volume discount function.
type DiscountTier struct {
	MinQty int     `json:"min_qty"`
	MaxQty int     `json:"max_qty"`
	Rate   float64 `json:"rate"`
}

// CostCapTier caps the normalized material unit cost by quantity tier.
type CostCapTier struct {
	MaxQty     int     `json:"max_qty"`
	Multiplier float64 `json:"multiplier"`
}

// FinancePolicy configures margins, surcharges, and discounts.
type FinancePolicy struct {
	MarginFloor       float64        `json:"margin_floor"`
	TargetMargin      float64        `json:"target_margin"`
	RushSurchargeRate float64        `json:"rush_surcharge_rate"`
	BaseCostPerUnit   float64        `json:"base_cost_per_unit"`
	VolumeDiscounts   []DiscountTier `json:"volume_discounts"`
	MaterialCostCaps  []CostCapTier  `json:"material_cost_caps"`
}

// #endregion

// #region sales

// CustomerProfile describes one customer's commercial tolerances.
type CustomerProfile struct {
	Tier                         string  `json:"tier"`
	MaxPriceUplift               float64 `json:"max_price_uplift"`
	AcceptableDeliveryBufferDays int     `json:"acceptable_delivery_buffer_days"`
	AnnualVolume                 int     `json:"annual_volume"`
	RelationshipYears            int     `json:"relationship_years"`
}

// SalesPolicy configures customer tolerance lookups.
type SalesPolicy struct {
	DefaultCustomer CustomerProfile            `json:"default_customer"`
	Customers       map[string]CustomerProfile `json:"customers"`
}

// #endregion

// #region catalogs

// BOMLine is one material requirement per finished unit.
type BOMLine struct {
	MaterialID string  `json:"material_id"`
	QtyPerUnit float64 `json:"qty_per_unit"`
}

// Product is one manufacturable SKU with its bill of materials.
type Product struct {
	SKU  string    `json:"sku"`
	Name string    `json:"name,omitempty"`
	BOM  []BOMLine `json:"bom"`
}

// StockItem is the on-hand inventory position for one material.
type StockItem struct {
	MaterialID string  `json:"material_id"`
	Stock      int     `json:"stock"`
	UnitCost   float64 `json:"unit_cost"`
}

// Supplier describes an external material source. A nil Availability map
// means the supplier quotes any material without a quantity cap; an explicit
// map limits coverage to the listed materials and quantities.
type Supplier struct {
	Name            string         `json:"name"`
	LeadTimeDays    int            `json:"lead_time_days"`
	PriceMultiplier float64        `json:"price_multiplier"`
	Availability    map[string]int `json:"availability,omitempty"`
}

// CanCover reports whether the supplier can quote the given quantity of a material.
func (s Supplier) CanCover(materialID string, quantity int) bool {
	if s.Availability == nil {
		return true
	}
	return s.Availability[materialID] >= quantity
}

// FactoryLine is one production line and its SKU support.
type FactoryLine struct {
	ID                 string   `json:"id"`
	SKUs               []string `json:"skus"`
	BaseWeeklyCapacity int      `json:"base_weekly_capacity"`
	CurrentLoad        float64  `json:"current_load"`
}

// Supports reports whether the line can run the SKU.
func (l FactoryLine) Supports(sku string) bool {
	for _, s := range l.SKUs {
		if s == sku {
			return true
		}
	}
	return false
}

// Carrier is one freight carrier within a mode's network.
type Carrier struct {
	Name          string   `json:"name"`
	FixedFee      float64  `json:"fixed_fee"`
	Reliability   float64  `json:"reliability"`
	LocationTypes []string `json:"location_types"`
	MaxUnits      int      `json:"max_units"`
}

// Serves reports whether the carrier covers a location type at the quantity.
func (c Carrier) Serves(locationType string, quantity int) bool {
	if c.MaxUnits > 0 && quantity > c.MaxUnits {
		return false
	}
	if len(c.LocationTypes) == 0 {
		return true
	}
	for _, t := range c.LocationTypes {
		if t == locationType {
			return true
		}
	}
	return false
}

// #endregion
