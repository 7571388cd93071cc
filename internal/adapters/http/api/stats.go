// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	service "github.com/okian/satfinder/internal/app"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	Stats() service.Stats
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.Stats())
}
