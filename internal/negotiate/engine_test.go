package negotiate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/synklabs/ordergate/internal/consensus"
	"github.com/synklabs/ordergate/internal/order"
	"github.com/synklabs/ordergate/internal/policy"
)

var engineClock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestEngine(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = func() time.Time { return engineClock }
	}
	return NewEngine(policy.Default(), opts)
}

type captureRecorder struct {
	result Result
	calls  int
	err    error
}

func (r *captureRecorder) RecordNegotiation(_ context.Context, res Result) error {
	r.result = res
	r.calls++
	return r.err
}

func TestNegotiateInStockOrderClearsInOneRound(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(100, 18, 12.0)
	req.CustomerLocation = "Austin, TX"

	res, err := e.Negotiate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Consensus.Approved() {
		t.Fatalf("decision = %s (%s)", res.Consensus.Decision, res.Consensus.RejectionReason)
	}
	if len(res.Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(res.Rounds))
	}
	if res.Consensus.FinalPrice != 12.0 {
		t.Errorf("final price = %.2f, want 12.00", res.Consensus.FinalPrice)
	}
	if res.Consensus.TotalDealValue != 1200.0 {
		t.Errorf("deal value = %.2f, want 1200.00", res.Consensus.TotalDealValue)
	}
}

func TestNegotiateAssignsOrderID(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(100, 18, 12.0)
	req.ID = ""

	res, err := e.Negotiate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.OrderID, "ORD-") {
		t.Errorf("order id = %q, want an ORD- identifier", res.OrderID)
	}
}

func TestNegotiateBulkShortageRecoversInTwoRounds(t *testing.T) {
	e := newTestEngine(Options{})
	// 5001 units needs 10002 material units against 10000 in stock
	req := bulkOrder(5001, 10, 12.0)

	res, err := e.Negotiate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2", len(res.Rounds))
	}

	first := res.Rounds[0].Consensus
	if first.Approved() {
		t.Fatal("round 1 should be blocked by the material shortfall")
	}
	if len(first.BlockingGates) != 1 || first.BlockingGates[0] != "procurement" {
		t.Fatalf("round 1 blocking gates = %v, want [procurement]", first.BlockingGates)
	}

	revised := res.Rounds[1].Request
	if revised.RequestedDeliveryDays != 12 {
		t.Errorf("round 2 days = %d, want the 12-day replenishment window", revised.RequestedDeliveryDays)
	}
	if revised.Quantity != 5001 {
		t.Errorf("round 2 quantity = %d, want the full 5001", revised.Quantity)
	}

	if !res.Consensus.Approved() {
		t.Fatalf("final decision = %s (%s)", res.Consensus.Decision, res.Consensus.RejectionReason)
	}
	if res.Consensus.FinalPrice != 12.0 {
		t.Errorf("final price = %.2f, want 12.00", res.Consensus.FinalPrice)
	}
}

func TestNegotiateUnknownSKUExhaustsAllRounds(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(50, 20, 15.0)
	req.ProductSKU = "PMP-UNKNOWN-999"

	res, err := e.Negotiate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Consensus.Approved() {
		t.Fatal("an unknown SKU can never be approved")
	}
	if len(res.Rounds) != 3 {
		t.Fatalf("rounds = %d, want the full 3", len(res.Rounds))
	}
	for _, round := range res.Rounds {
		if len(round.Consensus.BlockingGates) != 1 || round.Consensus.BlockingGates[0] != "procurement" {
			t.Errorf("round %d blocking gates = %v", round.RoundNumber, round.Consensus.BlockingGates)
		}
	}
	if !strings.Contains(res.Consensus.RejectionReason, "not found") {
		t.Errorf("rejection reason = %q", res.Consensus.RejectionReason)
	}
}

func TestNegotiateRevisionsStayWithinAnchors(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(5001, 5, 12.0)
	req.Priority = order.PriorityRush

	res, err := e.Negotiate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for _, round := range res.Rounds {
		if round.Request.RequestedPrice < 12.0 {
			t.Errorf("round %d price %.2f fell below the round-1 ask", round.RoundNumber, round.Request.RequestedPrice)
		}
		if round.Request.Quantity > 5001 {
			t.Errorf("round %d quantity %d exceeded the original order", round.RoundNumber, round.Request.Quantity)
		}
	}
	if len(res.Rounds) > 3 {
		t.Errorf("rounds = %d, the loop must stop at 3", len(res.Rounds))
	}
}

func TestNegotiateValidatesInput(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(0, 10, 12.0)

	_, err := e.Negotiate(context.Background(), req)
	if !errors.Is(err, order.ErrValidation) {
		t.Fatalf("err = %v, want a validation error", err)
	}
}

func TestNegotiateHonorsCancellation(t *testing.T) {
	e := newTestEngine(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Negotiate(ctx, bulkOrder(100, 18, 12.0))
	if err == nil {
		t.Fatal("cancelled context should abort before round 1")
	}
	if len(res.Rounds) != 0 {
		t.Errorf("rounds = %d, want none", len(res.Rounds))
	}
}

func TestNegotiateNotifiesRecorder(t *testing.T) {
	rec := &captureRecorder{}
	e := newTestEngine(Options{Recorder: rec})

	res, err := e.Negotiate(context.Background(), bulkOrder(100, 18, 12.0))
	if err != nil {
		t.Fatal(err)
	}
	if rec.calls != 1 {
		t.Fatalf("recorder calls = %d, want 1", rec.calls)
	}
	if rec.result.OrderID != res.OrderID {
		t.Errorf("recorded order %q, want %q", rec.result.OrderID, res.OrderID)
	}
}

func TestNegotiateRecorderErrorDoesNotFailNegotiation(t *testing.T) {
	rec := &captureRecorder{err: errors.New("disk full")}
	e := newTestEngine(Options{Recorder: rec})

	res, err := e.Negotiate(context.Background(), bulkOrder(100, 18, 12.0))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Consensus.Approved() {
		t.Error("persistence failures must not change the decision")
	}
}

func TestEvaluateSingleRound(t *testing.T) {
	e := newTestEngine(Options{})

	res, err := e.Evaluate(context.Background(), bulkOrder(100, 18, 12.0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision != consensus.DecisionSuccess {
		t.Fatalf("decision = %s (%s)", res.Decision, res.RejectionReason)
	}
}

func TestRoundCarriesRoundNumber(t *testing.T) {
	e := newTestEngine(Options{})
	req := bulkOrder(100, 18, 12.0).WithContext(order.Context{RoundNumber: 2})

	sum, err := e.Round(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if sum.RoundNumber != 2 {
		t.Errorf("round = %d, want 2", sum.RoundNumber)
	}
	if !sum.Consensus.Approved() {
		t.Errorf("decision = %s", sum.Consensus.Decision)
	}
}
