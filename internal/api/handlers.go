package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tradesim/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAccount returns cash, holdings and total value at live quotes.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.exec.Valuation(r.Context()))
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.exec.Ledger().Holdings())
}

// handleSubmitOrder runs one order. Applied orders return 200, rejected
// orders 422 with the full result, malformed bodies 400. A fractional
// quantity is a rejected order, not a malformed body.
func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order body: "+err.Error())
		return
	}

	order := domain.Order{
		Symbol: req.Symbol,
		Side:   domain.ParseOrderSide(req.Side),
	}
	var res domain.OrderResult
	if qty, err := req.quantity(); err != nil {
		res = s.exec.Reject(r.Context(), order, err)
	} else {
		order.Quantity = qty
		res = s.exec.Submit(r.Context(), order)
	}
	status := http.StatusOK
	if !res.Applied() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// handleListOrders returns journaled results, newest first.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "order journal disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := s.journal.ListResults(r.Context(), limit)
	if err != nil {
		s.log.Error("listing orders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if results == nil {
		results = []domain.OrderResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	sym := domain.NormalizeSymbol(r.PathValue("symbol"))
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	writeJSON(w, http.StatusOK, s.prices.GetQuote(r.Context(), sym))
}

// handlePredictions estimates the symbols in ?symbols=A,B or, when absent,
// the configured watchlist.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	symbols := s.watchlist
	if v := r.URL.Query().Get("symbols"); v != "" {
		symbols = strings.Split(v, ",")
	}
	s.writePredictions(w, s.orch.Predict(r.Context(), symbols))
}

func (s *Server) handleHoldingPredictions(w http.ResponseWriter, r *http.Request) {
	s.writePredictions(w, s.orch.PredictHoldings(r.Context(), s.exec.Ledger()))
}

func (s *Server) writePredictions(w http.ResponseWriter, est map[string]domain.Estimate) {
	writeJSON(w, http.StatusOK, PredictionsJSON{
		ModelPresent: s.orch.ModelPresent(),
		Estimates:    toEstimatesJSON(est),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
