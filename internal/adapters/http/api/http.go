// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/satfinder/internal/app"
	"github.com/okian/satfinder/internal/domain/envelope"
	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Handle answers a timings or path query.
	Handle(ctx context.Context, req service.Request) (envelope.Response, error)

	// Refresh force-fetches the TLE dataset.
	Refresh(ctx context.Context) (*model.Dataset, error)

	// Stats exposes cache state.
	Stats() service.Stats
}

// Query routes. The path variant must be registered separately from the
// timings one because ServeMux matches exact paths.
var queryRoutes = []struct {
	pattern  string
	endpoint string
}{
	{"/findstarlink", "timings"},
	{"/findstarlinkpath", "path"},
	{"/v1.1/findstarlink", "timings_v1_1"},
	{"/v1.1/findstarlinkpath", "path_v1_1"},
}

// Server wires HTTP routes for the query API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	queryHandler   *QueryHandler
	refreshHandler *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Noop()
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		queryHandler:   NewQueryHandler(deps, log),
		refreshHandler: NewRefreshHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux, log logger.Logger) {
	if log == nil {
		log = logger.Noop()
	}
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestMiddleware(MetricsMiddleware(h, endpoint), log)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tle/refresh", wrap(s.refreshHandler.HandleRefresh, "tle_refresh"))
	for _, r := range queryRoutes {
		mux.HandleFunc(r.pattern, wrap(s.queryHandler.HandleQuery, r.endpoint))
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

// writeError writes a generic error body. Causes are logged, never echoed.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Code: code, Message: http.StatusText(status)})
}
