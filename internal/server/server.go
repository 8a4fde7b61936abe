// Package server exposes the negotiation engine over HTTP: synchronous
// order evaluation, single-round execution, full consensus runs, a
// server-sent-event stream of the orchestration, and history queries
// backed by the audit store.
package server

// #region imports
import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/synklabs/ordergate/internal/audit"
	"github.com/synklabs/ordergate/internal/negotiate"
	"github.com/synklabs/ordergate/internal/order"
)

// #endregion

// #region server

// Server wires the engine and the audit store behind an http.Handler.
type Server struct {
	engine      *negotiate.Engine
	audit       *audit.Store
	streamDelay time.Duration
}

// Options configures optional server collaborators.
type Options struct {
	Audit       *audit.Store
	StreamDelay time.Duration
}

// New creates the HTTP surface for one engine.
func New(engine *negotiate.Engine, opts Options) *Server {
	return &Server{
		engine:      engine,
		audit:       opts.Audit,
		streamDelay: opts.StreamDelay,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", s.handleOrders)
	mux.HandleFunc("POST /api/rounds", s.handleRound)
	mux.HandleFunc("POST /api/consensus", s.handleConsensus)
	mux.HandleFunc("GET /api/orchestrate", s.handleOrchestrate)
	mux.HandleFunc("GET /api/negotiations", s.handleHistory)
	mux.HandleFunc("GET /api/negotiations/{id}", s.handleDetail)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// #endregion

// #region orders

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrder(w, r)
	if !ok {
		return
	}
	result, err := s.engine.Negotiate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   result.FinalRequest(),
		"result":  result,
	})
}

// #endregion

// #region rounds

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order order.Request `json:"order"`
		Round int           `json:"round"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if body.Round < 1 || body.Round > 3 {
		if body.Round != 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "round must be between 1 and 3"})
			return
		}
		body.Round = 1
	}

	req := body.Order
	ctx := req.EnsureContext()
	ctx.RoundNumber = body.Round
	req = req.WithContext(ctx)

	summary, err := s.engine.Round(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"round":     summary.RoundNumber,
		"converged": summary.Consensus.Approved(),
		"summary":   summary,
	})
}

// #endregion

// #region consensus

func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrder(w, r)
	if !ok {
		return
	}
	result, err := s.engine.Negotiate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	approvals := make([]map[string]any, 0, 5)
	if len(result.Rounds) > 0 {
		final := result.Rounds[len(result.Rounds)-1]
		for _, v := range final.Gates.Verdicts() {
			approvals = append(approvals, map[string]any{
				"gate":     v.Gate,
				"approved": v.CanProceed,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consensus": result.Consensus,
		"metadata": map[string]any{
			"order_id":       result.OrderID,
			"total_rounds":   len(result.Rounds),
			"gate_approvals": approvals,
		},
	})
}

// #endregion

// #region orchestrate

// handleOrchestrate streams the negotiation over SSE. Events mirror the
// round loop: phase_change, agent_update per gate, round_complete, and a
// final consensus_reached. The stream delay paces events for UI consumers;
// zero delay emits everything immediately.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		http.Error(w, "missing order parameter", http.StatusBadRequest)
		return
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		http.Error(w, "invalid order parameter", http.StatusBadRequest)
		return
	}
	var req order.Request
	if err := json.Unmarshal([]byte(decoded), &req); err != nil {
		http.Error(w, "invalid order parameter: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	stream := &eventStream{w: w, flusher: flusher, delay: s.streamDelay}
	if req.ID == "" {
		req.ID = order.NewID()
	}
	req = req.WithContext(req.EnsureContext())

	stream.emit("phase_change", map[string]any{"phase": "order-broadcast"})

	var rounds []negotiate.RoundSummary
	for round := 1; round <= 3; round++ {
		if r.Context().Err() != nil {
			return
		}
		stream.emit("phase_change", map[string]any{"phase": "round-" + strconv.Itoa(round)})

		summary, err := s.engine.Round(r.Context(), req)
		if err != nil {
			stream.emit("error", map[string]any{"error": err.Error()})
			return
		}
		rounds = append(rounds, summary)

		for _, v := range summary.Gates.Verdicts() {
			stream.emit("agent_update", map[string]any{
				"agentId": v.Gate,
				"verdict": v,
			})
		}
		stream.emit("round_complete", map[string]any{"roundSummary": summary})

		if summary.Consensus.Approved() || round == 3 {
			break
		}
		req = s.engine.Next(req, summary)
	}

	stream.emit("phase_change", map[string]any{"phase": "consensus"})
	final := rounds[len(rounds)-1]
	stream.emit("consensus_reached", map[string]any{
		"consensus":   final.Consensus,
		"order":       final.Request,
		"totalRounds": len(rounds),
	})
}

type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	delay   time.Duration
}

func (s *eventStream) emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[HTTP] marshal %s event: %v", event, err)
		return
	}
	if _, err := s.w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		return
	}
	s.flusher.Flush()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
}

// #endregion

// #region history

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "audit store not configured"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	list, err := s.audit.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"negotiations": list})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "audit store not configured"})
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	rounds, err := s.audit.NegotiationDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(rounds) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "negotiation not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "rounds": rounds})
}

// #endregion

// #region health

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "ordergate",
		"audit":   s.audit != nil,
	})
}

// #endregion

// #region helpers

func decodeOrder(w http.ResponseWriter, r *http.Request) (order.Request, bool) {
	var body struct {
		Order *order.Request `json:"order"`
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return order.Request{}, false
	}
	// Accept either {"order": {...}} or a bare order object.
	if err := json.Unmarshal(raw, &body); err == nil && body.Order != nil {
		return *body.Order, true
	}
	var req order.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return order.Request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, order.ErrValidation) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// #endregion
