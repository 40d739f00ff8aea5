// Package api exposes the trading simulator over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tradesim/internal/engine"
	"tradesim/internal/metrics"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

// Server hosts the HTTP endpoints.
type Server struct {
	exec      *engine.Executor
	orch      *engine.Orchestrator
	prices    engine.Quoter
	journal   store.OrderStore
	watchlist []string
	log       *slog.Logger

	httpSrv *http.Server
}

// Options wires a Server. Journal may be nil, in which case the order
// listing endpoint returns 404.
type Options struct {
	Addr         string
	Executor     *engine.Executor
	Orchestrator *engine.Orchestrator
	Prices       engine.Quoter
	Journal      store.OrderStore
	Watchlist    []string
	Logger       *slog.Logger
}

// NewServer creates a new Server from opts.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = util.Discard()
	}
	s := &Server{
		exec:      opts.Executor,
		orch:      opts.Orchestrator,
		prices:    opts.Prices,
		journal:   opts.Journal,
		watchlist: opts.Watchlist,
		log:       opts.Logger.With("component", "api"),
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// RegisterRoutes adds all API routes to the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/account", s.handleAccount)
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("POST /api/v1/orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/v1/quotes/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /api/v1/predictions", s.handlePredictions)
	mux.HandleFunc("GET /api/v1/predictions/holdings", s.handleHoldingPredictions)
	mux.Handle("GET /metrics", metrics.Handler())
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpSrv.Addr, err)
	}
	s.log.Info("http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
