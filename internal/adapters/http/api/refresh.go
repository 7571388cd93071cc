package api

import (
	"net/http"
	"time"

	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
)

// RefreshHandler forces a TLE dataset download.
type RefreshHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps Dependencies, log logger.Logger) *RefreshHandler {
	return &RefreshHandler{deps: deps, logger: log}
}

type refreshResponse struct {
	Source     string    `json:"source"`
	Satellites int       `json:"satellites"`
	Active     int       `json:"active"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// HandleRefresh handles POST /tle/refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	ds, err := h.deps.Refresh(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "forced refresh failed", logger.Error(errkind.WrapKind(op, ErrRefresh, err)))
		writeError(w, http.StatusBadGateway, "refresh_failed")
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Source:     ds.Source,
		Satellites: len(ds.Satellites),
		Active:     len(ds.Active()),
		FetchedAt:  ds.FetchedAt,
	})
}
