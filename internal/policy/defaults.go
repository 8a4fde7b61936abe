package policy

import "github.com/synklabs/ordergate/internal/order"

// Built-in policy defaults. Each table file under the policy directory is
// optional; an absent file yields the corresponding default below.

// #region policy-defaults

// DefaultProcurement returns the baseline supplier arrangement.
func DefaultProcurement() ProcurementPolicy {
	return ProcurementPolicy{
		PrimarySupplier:       "ChemCorp Asia",
		PrimaryLeadTimeDays:   10,
		AlternateSupplier:     "EuroChem GmbH",
		AlternateLeadTimeDays: 14,
		ReplenishBufferDays:   2,
	}
}

// DefaultProduction returns the baseline factory planning limits.
func DefaultProduction() ProductionPolicy {
	return ProductionPolicy{
		WeeklyCapacity:         4000,
		StandardLeadTimeDays:   22,
		MaxOvertimeHoursPerDay: 4,
		WorkingDaysPerWeek:     5,
		MaxPlanningWeeks:       4,
		OvertimeCostPerHour:    45.0,
		StrategyProfiles: map[order.Strategy]StrategyProfile{
			order.StrategyBaseline:    {CapacityMultiplier: 1.0, ChangeoverPenaltyDays: 0, DefaultOvertimeHours: 0},
			order.StrategyPreempt:     {CapacityMultiplier: 1.25, ChangeoverPenaltyDays: 1, DefaultOvertimeHours: 2},
			order.StrategyPhasedSplit: {CapacityMultiplier: 1.4, ChangeoverPenaltyDays: 2, DefaultOvertimeHours: 2},
		},
	}
}

// DefaultLogistics returns the baseline freight table.
func DefaultLogistics() LogisticsPolicy {
	return LogisticsPolicy{
		ShippingModes: map[string]ShippingMode{
			"ground":  {CostPerUnit: 0.30, TransitDays: 5},
			"express": {CostPerUnit: 0.85, TransitDays: 3},
			"air":     {CostPerUnit: 2.10, TransitDays: 1},
		},
		LocationProfiles: map[string]LocationProfile{
			"local city":     {Type: "local", DistanceKM: 50},
			"regional state": {Type: "regional", DistanceKM: 300},
			"national":       {Type: "national", DistanceKM: 1000},
		},
		DefaultMode: "ground",
	}
}

// DefaultFinance returns the baseline margin and discount policy.
func DefaultFinance() FinancePolicy {
	return FinancePolicy{
		MarginFloor:       0.15,
		TargetMargin:      0.22,
		RushSurchargeRate: 0.12,
		BaseCostPerUnit:   8.5,
		VolumeDiscounts: []DiscountTier{
			{MinQty: 0, MaxQty: 99, Rate: 0.0},
			{MinQty: 100, MaxQty: 999, Rate: 0.01},
			{MinQty: 1000, MaxQty: 4999, Rate: 0.02},
			{MinQty: 5000, MaxQty: 99999999, Rate: 0.03},
		},
		MaterialCostCaps: []CostCapTier{
			{MaxQty: 100, Multiplier: 1.08},
			{MaxQty: 1000, Multiplier: 1.18},
			{MaxQty: 0, Multiplier: 1.30}, // MaxQty 0 = unbounded tier
		},
	}
}

// DefaultSales returns the baseline customer book.
func DefaultSales() SalesPolicy {
	return SalesPolicy{
		DefaultCustomer: CustomerProfile{
			Tier:                         "standard",
			MaxPriceUplift:               0.20,
			AcceptableDeliveryBufferDays: 2,
			AnnualVolume:                 25000,
			RelationshipYears:            1,
		},
		Customers: map[string]CustomerProfile{
			"acme corp": {
				Tier:                         "strategic",
				MaxPriceUplift:               0.25,
				AcceptableDeliveryBufferDays: 3,
				AnnualVolume:                 120000,
				RelationshipYears:            5,
			},
		},
	}
}

// #endregion

// #region catalog-defaults

// DefaultSuppliers returns the built-in supplier book used when no supplier
// catalog file exists. Both suppliers quote without a quantity cap; lead
// times and price multipliers come from the procurement policy defaults.
func DefaultSuppliers() map[string]Supplier {
	return map[string]Supplier{
		"ChemCorp Asia": {Name: "ChemCorp Asia", LeadTimeDays: 10, PriceMultiplier: 1.12},
		"EuroChem GmbH": {Name: "EuroChem GmbH", LeadTimeDays: 14, PriceMultiplier: 1.08},
	}
}

// defaultCarrier is the universal carrier substituted when a mode has no
// configured network: all location types, no unit cap, no fixed fee.
func defaultCarrier(mode string) Carrier {
	reliability := map[string]float64{"ground": 0.95, "express": 0.92, "air": 0.88}[mode]
	if reliability == 0 {
		reliability = 0.90
	}
	return Carrier{
		Name:        "UniFreight " + mode,
		FixedFee:    0,
		Reliability: reliability,
	}
}

// DefaultMaterials returns the built-in demo product catalog.
func DefaultMaterials() []Product {
	return []Product{
		{
			SKU:  "PMP-STD-100",
			Name: "Standard Polymer Membrane Panel",
			BOM: []BOMLine{
				{MaterialID: "MAT-POLY-XR", QtyPerUnit: 2.0},
			},
		},
	}
}

// DefaultInventory returns the built-in demo stock positions.
func DefaultInventory() []StockItem {
	return []StockItem{
		{MaterialID: "MAT-POLY-XR", Stock: 10000, UnitCost: 3.0},
	}
}

// #endregion
