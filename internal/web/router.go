// Package web is the HTTP side of the query service: health and metrics
// endpoints, a plain HTTP query endpoint, the Socket.IO front end and a small
// static file responder.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/dispatch"
	"github.com/vk/tquery/internal/metrics"
)

// Querier answers queries and reports on the graph.
type Querier interface {
	Submitter
	Stats() dispatch.Stats
}

// Options selects the optional parts of the router.
type Options struct {
	// Metrics enables /metrics.
	Metrics *metrics.Collector
	// SocketIO is mounted under /socket.io/ when set.
	SocketIO http.Handler
	// StaticDir enables the static responder for every other path.
	StaticDir string
	// MaxQueryLength bounds the q parameter of /query. Zero means no limit.
	MaxQueryLength int
}

// NewRouter builds the HTTP handler. Requests carry logger, tagged with the
// request id, in their context.
func NewRouter(logger *slog.Logger, q Querier, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(chimiddleware.Recoverer)

	h := &handlers{querier: q, metrics: opts.Metrics, maxQueryLength: opts.MaxQueryLength}
	router.Get("/health", h.health)
	router.Get("/query", h.query)

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.SocketIO != nil {
		router.Handle("/socket.io/*", opts.SocketIO)
	}
	if opts.StaticDir != "" {
		router.Handle("/*", NewStatic(opts.StaticDir))
	}
	return router
}

// requestLogger stores a request scoped logger in the context and logs each
// request once it is done.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := ctxlog.WithLogger(r.Context(), logger)
			ctx, reqLogger := ctxlog.With(ctx, "request_id", chimiddleware.GetReqID(r.Context()))

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Debug("HTTP request handled.",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

type handlers struct {
	querier        Querier
	metrics        *metrics.Collector
	maxQueryLength int
}

type healthResponse struct {
	Status string `json:"status"`
	dispatch.Stats
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(healthResponse{Status: "ok", Stats: h.querier.Stats()}); err != nil {
		ctxlog.FromContext(r.Context()).Warn("Failed to write health response.", "error", err)
	}
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	line := r.URL.Query().Get("q")
	if line == "" {
		http.Error(w, "bad request: missing q parameter", http.StatusBadRequest)
		return
	}
	if h.maxQueryLength > 0 && len(line) > h.maxQueryLength {
		http.Error(w, "bad request: query too long", http.StatusRequestEntityTooLarge)
		return
	}

	if h.metrics != nil {
		h.metrics.ConnectionAccepted("http")
	}
	reply, err := h.querier.Submit(r.Context(), line)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Debug("Query abandoned by HTTP client.", "error", err)
		http.Error(w, "query abandoned", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_, _ = w.Write([]byte(dispatch.Text(reply, err)))
}
