package gates

import (
	"testing"
	"time"

	"github.com/synklabs/ordergate/internal/policy"
)

var testClock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestLogisticsPicksCheapestModeThatMeetsSchedule(t *testing.T) {
	g := NewLogistics(policy.Default())

	res := g.Evaluate(stdOrder(100, 18), 5, testClock)
	if !res.CanProceed {
		t.Fatalf("expected approval: %s", res.Reasoning)
	}
	if res.Mode != "ground" {
		t.Errorf("mode = %s, want ground", res.Mode)
	}
	if res.ShippingCost != 30.0 {
		t.Errorf("shipping cost = %.2f, want 30.00", res.ShippingCost)
	}
	if res.TotalDays != 10 {
		t.Errorf("total days = %d, want 10", res.TotalDays)
	}
	if res.LocationType != "national" {
		t.Errorf("location type = %s, want national", res.LocationType)
	}
	want := testClock.AddDate(0, 0, 10)
	if !res.DeliveryDate.Equal(want) {
		t.Errorf("delivery date = %s, want %s", res.DeliveryDate, want)
	}
	if res.Confidence != 0.80 {
		t.Errorf("confidence = %.2f, want 0.80", res.Confidence)
	}
}

func TestLogisticsUpgradesToAirWhenWindowIsTight(t *testing.T) {
	g := NewLogistics(policy.Default())

	// 6-day window: only air (5 production + 1 transit) fits.
	res := g.Evaluate(stdOrder(100, 6), 5, testClock)
	if !res.CanProceed {
		t.Fatalf("air should make the window: %s", res.Reasoning)
	}
	if res.Mode != "air" {
		t.Errorf("mode = %s, want air", res.Mode)
	}
	if res.ShippingCost != 210.0 {
		t.Errorf("shipping cost = %.2f, want 210.00", res.ShippingCost)
	}
}

func TestLogisticsScheduleMissStillReportsBestOption(t *testing.T) {
	g := NewLogistics(policy.Default())

	res := g.Evaluate(stdOrder(100, 5), 5, testClock)
	if res.CanProceed {
		t.Fatal("no mode can deliver in 5 days with 5 production days")
	}
	if res.Confidence != 0.62 {
		t.Errorf("confidence = %.2f, want 0.62", res.Confidence)
	}
	// cheapest option still gets reported for the revision loop
	if res.Mode != "ground" || res.TotalDays != 10 {
		t.Errorf("best option = %s/%d days, want ground/10", res.Mode, res.TotalDays)
	}
}

func TestLogisticsNoCarrierCoverage(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "materials.json",
		`[{"sku": "PMP-STD-100", "bom": [{"material_id": "MAT-POLY-XR", "qty_per_unit": 2.0}]}]`)
	writeCatalog(t, dir, "inventory.json",
		`[{"material_id": "MAT-POLY-XR", "stock": 10000, "unit_cost": 3.0}]`)
	writeCatalog(t, dir, "carriers.json",
		`{"carrier_networks": {
		   "ground":  [{"name": "Metro Haul", "fixed_fee": 15, "reliability": 0.97, "location_types": ["local"], "max_units": 500}],
		   "express": [{"name": "Metro Haul", "fixed_fee": 40, "reliability": 0.95, "location_types": ["local"], "max_units": 500}],
		   "air":     [{"name": "Metro Haul", "fixed_fee": 90, "reliability": 0.92, "location_types": ["local"], "max_units": 500}]
		 }}`)
	store, err := policy.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := NewLogistics(store)

	// national destination, but every carrier only serves local routes
	res := g.Evaluate(stdOrder(100, 18), 5, testClock)
	if res.CanProceed {
		t.Fatal("no carrier serves a national destination")
	}
	if res.Mode != "" {
		t.Errorf("no mode should be booked, got %s", res.Mode)
	}
	if res.Confidence != 0.62 {
		t.Errorf("confidence = %.2f, want 0.62", res.Confidence)
	}
}

func TestLogisticsCarrierFixedFeeEntersCost(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "materials.json",
		`[{"sku": "PMP-STD-100", "bom": [{"material_id": "MAT-POLY-XR", "qty_per_unit": 2.0}]}]`)
	writeCatalog(t, dir, "inventory.json",
		`[{"material_id": "MAT-POLY-XR", "stock": 10000, "unit_cost": 3.0}]`)
	writeCatalog(t, dir, "carriers.json",
		`{"carrier_networks": {
		   "ground": [
		     {"name": "BulkFreight", "fixed_fee": 120, "reliability": 0.9},
		     {"name": "ValueLine", "fixed_fee": 25, "reliability": 0.85}
		   ]
		 }}`)
	store, err := policy.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := NewLogistics(store)

	res := g.Evaluate(stdOrder(100, 18), 5, testClock)
	if !res.CanProceed {
		t.Fatalf("expected approval: %s", res.Reasoning)
	}
	if res.Carrier != "ValueLine" {
		t.Errorf("carrier = %s, want the cheaper ValueLine", res.Carrier)
	}
	if res.ShippingCost != 55.0 {
		t.Errorf("shipping cost = %.2f, want 55.00 (0.30*100 + 25 fee)", res.ShippingCost)
	}
}
