package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/synklabs/ordergate/internal/audit"
	"github.com/synklabs/ordergate/internal/negotiate"
	"github.com/synklabs/ordergate/internal/policy"
)

const stockOrderJSON = `{
	"product_sku": "PMP-STD-100",
	"quantity": 100,
	"customer": "Globex",
	"customer_location": "Austin, TX",
	"requested_price": 12.0,
	"requested_delivery_days": 18,
	"priority": "normal"
}`

func testHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	engineOpts := negotiate.Options{
		Now: func() time.Time { return clock },
	}
	// Assigning a nil *audit.Store directly would make the Recorder
	// interface non-nil and panic inside the engine.
	if opts.Audit != nil {
		engineOpts.Recorder = opts.Audit
	}
	engine := negotiate.NewEngine(policy.Default(), engineOpts)
	return New(engine, opts).Handler()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" || body["service"] != "ordergate" {
		t.Errorf("body = %v", body)
	}
	if body["audit"] != false {
		t.Errorf("audit = %v, want false without a store", body["audit"])
	}
}

func TestOrdersEndpoint(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(stockOrderJSON)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing: %v", body)
	}
	consensus, ok := result["consensus"].(map[string]any)
	if !ok {
		t.Fatalf("consensus missing: %v", result)
	}
	if consensus["decision"] != "SUCCESS" {
		t.Errorf("decision = %v", consensus["decision"])
	}
}

func TestOrdersEndpointAcceptsWrappedOrder(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	wrapped := `{"order": ` + stockOrderJSON + `}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(wrapped)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOrdersEndpointRejectsInvalidOrder(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"quantity": 0}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOrdersEndpointRejectsMalformedJSON(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRoundEndpoint(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	body := `{"order": ` + stockOrderJSON + `, "round": 2}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rounds", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["round"] != float64(2) {
		t.Errorf("round = %v, want 2", resp["round"])
	}
	if resp["converged"] != true {
		t.Errorf("converged = %v", resp["converged"])
	}
}

func TestRoundEndpointRejectsOutOfRangeRound(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	body := `{"order": ` + stockOrderJSON + `, "round": 4}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rounds", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConsensusEndpoint(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/consensus", strings.NewReader(stockOrderJSON)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	meta, ok := body["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata missing: %v", body)
	}
	if meta["total_rounds"] != float64(1) {
		t.Errorf("total_rounds = %v, want 1", meta["total_rounds"])
	}
	approvals, ok := meta["gate_approvals"].([]any)
	if !ok || len(approvals) != 5 {
		t.Errorf("gate_approvals = %v, want all five gates", meta["gate_approvals"])
	}
}

func TestOrchestrateStream(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	target := "/api/orchestrate?order=" + url.QueryEscape(stockOrderJSON)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	stream := rec.Body.String()
	for _, event := range []string{"phase_change", "agent_update", "round_complete", "consensus_reached"} {
		if !strings.Contains(stream, "event: "+event) {
			t.Errorf("stream missing %s event", event)
		}
	}
}

func TestOrchestrateRequiresOrderParam(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orchestrate", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryWithoutAuditStore(t *testing.T) {
	h := testHandler(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/negotiations", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store, err := audit.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	h := testHandler(t, Options{Audit: store})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(stockOrderJSON)))
	if rec.Code != http.StatusOK {
		t.Fatalf("negotiate status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/negotiations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	list, ok := body["negotiations"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("negotiations = %v, want one entry", body["negotiations"])
	}
	first, _ := list[0].(map[string]any)
	orderID, _ := first["order_id"].(string)
	if orderID == "" {
		t.Fatalf("entry = %v", first)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/negotiations/"+orderID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d: %s", rec.Code, rec.Body.String())
	}
	detail := decodeBody(t, rec)
	rounds, ok := detail["rounds"].([]any)
	if !ok || len(rounds) != 1 {
		t.Errorf("rounds = %v, want one round", detail["rounds"])
	}
}

func TestDetailUnknownNegotiation(t *testing.T) {
	store, err := audit.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	h := testHandler(t, Options{Audit: store})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/negotiations/ORD-NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	store, err := audit.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	h := testHandler(t, Options{Audit: store})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/negotiations?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
