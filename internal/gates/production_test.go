package gates

import (
	"testing"

	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

func TestProductionSmallOrderUsesMinimumWindow(t *testing.T) {
	g := NewProduction(policy.Default())

	res := g.Evaluate(stdOrder(100, 18))
	if !res.CanProceed {
		t.Fatalf("expected approval: %s", res.Reasoning)
	}
	if res.ProductionDays != 5 {
		t.Errorf("production days = %d, want 5", res.ProductionDays)
	}
	if res.Confidence != 0.84 {
		t.Errorf("confidence = %.2f, want 0.84", res.Confidence)
	}
	if res.OvertimeHours != 0 || res.OvertimeCost != 0 {
		t.Errorf("baseline in-schedule order should need no overtime: %dh $%.2f", res.OvertimeHours, res.OvertimeCost)
	}
}

func TestProductionCapacityExceeded(t *testing.T) {
	g := NewProduction(policy.Default())

	// 20,000 units against 4,000/week over a 4-week planning window.
	res := g.Evaluate(stdOrder(20000, 60))
	if res.CanProceed {
		t.Fatal("order beyond the planning window must block")
	}
	if res.CapacityOK {
		t.Error("capacity check should fail")
	}
	if res.Confidence != 0.58 {
		t.Errorf("confidence = %.2f, want 0.58", res.Confidence)
	}
}

func TestProductionScheduleMiss(t *testing.T) {
	g := NewProduction(policy.Default())

	// 5,000 units need ceil(5000/4000*5) = 7 days against a 5-day ask.
	res := g.Evaluate(stdOrder(5000, 5))
	if res.CanProceed {
		t.Fatal("expected schedule miss")
	}
	if !res.CapacityOK {
		t.Error("capacity itself is fine at 5,000 units")
	}
	if res.ProductionDays != 7 {
		t.Errorf("production days = %d, want 7", res.ProductionDays)
	}
	if res.Confidence != 0.64 {
		t.Errorf("confidence = %.2f, want 0.64", res.Confidence)
	}
	// schedule shortfall caps overtime at max-per-day + 2
	if res.OvertimeHours != 4 {
		t.Errorf("overtime hours = %d, want 4", res.OvertimeHours)
	}
	if res.OvertimeCost != 180.0 {
		t.Errorf("overtime cost = %.2f, want 180.00", res.OvertimeCost)
	}
}

func TestProductionPreemptStrategyRaisesCapacity(t *testing.T) {
	g := NewProduction(policy.Default())

	req := stdOrder(5000, 10)
	req = req.WithContext(order.Context{ProductionStrategy: order.StrategyPreempt})
	res := g.Evaluate(req)

	// 1.25x capacity covers 5,000/week; one changeover day gets added.
	if res.EffectiveWeeklyCapacity != 5000 {
		t.Errorf("effective capacity = %.0f, want 5000", res.EffectiveWeeklyCapacity)
	}
	if res.ProductionDays != 6 {
		t.Errorf("production days = %d, want 6", res.ProductionDays)
	}
	if !res.CanProceed {
		t.Fatalf("expected approval: %s", res.Reasoning)
	}
	// preempt carries a default overtime posture even when on schedule
	if res.OvertimeHours != 2 {
		t.Errorf("overtime hours = %d, want 2", res.OvertimeHours)
	}
}

func TestProductionFactoryLinesOverrideGlobalCapacity(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "materials.json",
		`[{"sku": "PMP-STD-100", "bom": [{"material_id": "MAT-POLY-XR", "qty_per_unit": 2.0}]}]`)
	writeCatalog(t, dir, "inventory.json",
		`[{"material_id": "MAT-POLY-XR", "stock": 10000, "unit_cost": 3.0}]`)
	writeCatalog(t, dir, "factory.json",
		`{"lines": [{"id": "LINE-A", "skus": ["PMP-STD-100"], "base_weekly_capacity": 1000, "current_load": 0.5}]}`)
	store, err := policy.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := NewProduction(store)

	res := g.Evaluate(stdOrder(400, 18))
	// one line at 1,000/week with half its load committed
	if res.EffectiveWeeklyCapacity != 500 {
		t.Errorf("effective capacity = %.0f, want 500", res.EffectiveWeeklyCapacity)
	}
}
