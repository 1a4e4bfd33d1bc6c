// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/okian/ctfboard/internal/domain/table"
	"github.com/okian/ctfboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Teams(ctx context.Context, q table.Query) (table.Page[types.TeamRow], error)
	Events(ctx context.Context, q table.Query) (table.Page[types.EventRow], error)
	Universities(ctx context.Context, q table.Query) (table.Page[types.UniversityRow], error)
}

// Server wires HTTP routes for the rankings API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	columnsHandler *ColumnsHandler
	views          map[types.View]http.HandlerFunc

	pageSize    int
	maxPageSize int
	rps         float64
	burst       int
	origins     []string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithPageSizes sets the default and the largest accepted page size.
func WithPageSizes(def, maxSize int) Option {
	return func(s *Server) {
		if def > 0 {
			s.pageSize = def
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// WithRateLimit enables per-client rate limiting of the API routes.
// A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rps = rps
		s.burst = burst
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		columnsHandler: NewColumnsHandler(),
		pageSize:       table.DefaultPageSize,
		maxPageSize:    maxPageSizeDefault,
		origins:        []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pageSize = min(s.pageSize, s.maxPageSize)

	limits := pageLimits{def: s.pageSize, max: s.maxPageSize}
	s.views = map[types.View]http.HandlerFunc{
		types.ViewTeams:        viewHandler(types.ViewTeams, deps.Teams, limits),
		types.ViewEvents:       viewHandler(types.ViewEvents, deps.Events, limits),
		types.ViewUniversities: viewHandler(types.ViewUniversities, deps.Universities, limits),
	}
	return s
}

// Register attaches all HTTP routes to mux. The rate limiter's cleanup loop
// stops when ctx is done.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	})

	var limiter *RateLimiter
	if s.rps > 0 {
		limiter = NewRateLimiter(ctx, s.rps, s.burst)
	}
	route := func(endpoint string, h http.HandlerFunc) http.Handler {
		h = MetricsMiddleware(h, endpoint)
		if limiter != nil {
			h = limiter.Middleware(h, endpoint)
		}
		return c.Handler(h)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/api/v1/columns/{view}", route("columns", s.columnsHandler.HandleColumns))
	for _, view := range types.Views {
		mux.Handle("/api/v1/"+string(view), route(string(view), s.views[view]))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// readOnly rejects anything but GET and HEAD with 405.
func readOnly(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodDenied))
	return false
}
