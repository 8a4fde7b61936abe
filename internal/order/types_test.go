package order

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizePriority(t *testing.T) {
	cases := []struct {
		in   string
		want Priority
	}{
		{"rush", PriorityRush},
		{"RUSH", PriorityRush},
		{"  critical ", PriorityCritical},
		{"expedited", PriorityExpedited},
		{"normal", PriorityNormal},
		{"", PriorityNormal},
		{"whenever", PriorityNormal},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := NormalizePriority(c.in); got != c.want {
				t.Errorf("NormalizePriority(%q) = %s, want %s", c.in, got, c.want)
			}
		})
	}
}

func TestIsRush(t *testing.T) {
	if PriorityNormal.IsRush() {
		t.Error("normal should not be rush-class")
	}
	for _, p := range []Priority{PriorityRush, PriorityExpedited, PriorityCritical} {
		if !p.IsRush() {
			t.Errorf("%s should be rush-class", p)
		}
	}
}

func TestNormalizeStrategy(t *testing.T) {
	if got := NormalizeStrategy("preempt_and_overtime"); got != StrategyPreempt {
		t.Errorf("got %s", got)
	}
	if got := NormalizeStrategy("something_else"); got != StrategyBaseline {
		t.Errorf("unknown strategy should map to baseline, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Request{
		ProductSKU:            "PMP-STD-100",
		Quantity:              100,
		RequestedPrice:        12.0,
		RequestedDeliveryDays: 18,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero quantity", func(r *Request) { r.Quantity = 0 }},
		{"negative quantity", func(r *Request) { r.Quantity = -5 }},
		{"blank sku", func(r *Request) { r.ProductSKU = "  " }},
		{"zero days", func(r *Request) { r.RequestedDeliveryDays = 0 }},
		{"zero price", func(r *Request) { r.RequestedPrice = 0 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := valid
			c.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestEnsureContextSeedsAnchors(t *testing.T) {
	req := Request{
		ProductSKU:            "PMP-STD-100",
		Quantity:              250,
		RequestedPrice:        14.5,
		RequestedDeliveryDays: 21,
	}

	ctx := req.EnsureContext()
	if ctx.OriginalRequestedPrice != 14.5 || ctx.OriginalRequestedDeliveryDays != 21 || ctx.OriginalQuantity != 250 {
		t.Errorf("anchors not seeded from request: %+v", ctx)
	}
	if ctx.RoundNumber != 1 {
		t.Errorf("expected round 1, got %d", ctx.RoundNumber)
	}
	if ctx.ProductionStrategy != StrategyBaseline {
		t.Errorf("expected baseline strategy, got %s", ctx.ProductionStrategy)
	}
}

func TestEnsureContextPreservesExistingAnchors(t *testing.T) {
	req := Request{
		ProductSKU:            "PMP-STD-100",
		Quantity:              100,
		RequestedPrice:        16.0,
		RequestedDeliveryDays: 25,
	}
	req = req.WithContext(Context{
		OriginalRequestedPrice:        12.0,
		OriginalRequestedDeliveryDays: 18,
		OriginalQuantity:              200,
		RoundNumber:                   2,
	})

	ctx := req.EnsureContext()
	if ctx.OriginalRequestedPrice != 12.0 {
		t.Errorf("round-1 price anchor overwritten: %.2f", ctx.OriginalRequestedPrice)
	}
	if ctx.RoundNumber != 2 {
		t.Errorf("round number lost: %d", ctx.RoundNumber)
	}
}

func TestNewID(t *testing.T) {
	id := NewID()
	if !strings.HasPrefix(id, "ORD-") {
		t.Errorf("expected ORD- prefix, got %s", id)
	}
	if len(id) != len("ORD-")+8 {
		t.Errorf("unexpected id length: %s", id)
	}
	if id == NewID() {
		t.Error("ids should be unique")
	}
}
