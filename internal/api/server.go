// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the search, selection, history, filter and layout
// stores over HTTP for the serve command.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/internal/history"
	"github.com/pdiddy/annotation-browser/internal/insdc"
	"github.com/pdiddy/annotation-browser/internal/layout"
	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/internal/metrics"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/internal/selection"
)

// DefaultPageSize is the page size used when rendering filter query
// parameters without an explicit page_size.
const DefaultPageSize = 20

// Deps are the stores the server reads and mutates.
type Deps struct {
	Registry        *search.Registry
	DispatchOptions []search.Option
	Router          *selection.Router
	Filters         *filter.Store
	History         *history.Search
	INSDCHistory    *history.INSDC
	Resolver        *insdc.Resolver
	Layout          *layout.Store

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTP
	Logger      *zap.Logger
}

// Server is the HTTP surface.
type Server struct {
	d   Deps
	log *zap.Logger
}

func NewServer(d Deps) *Server {
	return &Server{d: d, log: logger.OrNop(d.Logger)}
}

// Handler returns the routed handler with recovery, request ids, request
// logging and request metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(jsonRecoverer)
	r.Use(s.d.HTTPMetrics.Middleware)

	r.Get("/healthz", s.health)
	if s.d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/search", s.search)
	r.Get("/search/stream", s.searchStream)
	r.Post("/select", s.selectResult)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.listHistory)
		r.Delete("/", s.clearHistory)
		r.Get("/insdc", s.listINSDCHistory)
		r.Delete("/insdc", s.clearINSDCHistory)
	})
	r.Post("/insdc/lookup", s.insdcLookup)

	r.Route("/filters", func(r chi.Router) {
		r.Get("/", s.getFilters)
		r.Put("/", s.putFilters)
		r.Delete("/", s.clearFilters)
	})

	r.Get("/layout", s.getLayout)
	r.Put("/layout", s.putLayout)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// maxBody bounds request bodies.
const maxBody = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func pageSize(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page_size")
	if raw == "" {
		return DefaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("page_size must be a positive integer")
	}
	return n, nil
}

// jsonRecoverer turns panics into a JSON 500.
func jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.FromContext(r.Context()).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				msg := "internal error"
				if id := logger.RequestID(r.Context()); id != "" {
					msg += " (request " + id + ")"
				}
				writeError(w, http.StatusInternalServerError, "internal_error", msg)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one log line per request and puts a request-scoped
// logger in the context.
func requestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}
			ctx := logger.WithRequest(r.Context(), log, requestID)
			reqLog := logger.FromContext(ctx)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
