package api

import (
	"net/http"

	service "github.com/okian/satfinder/internal/app"
	"github.com/okian/satfinder/internal/domain/envelope"
	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
)

// QueryHandler serves the timings and path queries.
type QueryHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps Dependencies, log logger.Logger) *QueryHandler {
	return &QueryHandler{deps: deps, logger: log}
}

// HandleQuery handles GET /findstarlink, /findstarlinkpath and their /v1.1/
// variants.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	const op = "api.query"
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	resp, err := h.deps.Handle(r.Context(), ToRequest(r))
	if err != nil {
		h.logger.Error(r.Context(), "query failed",
			logger.String("path", r.URL.Path),
			logger.Error(errkind.WrapKind(op, ErrQuery, err)),
		)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeEnvelope(w, resp)
}

// ToRequest converts an HTTP request into a service request. A request
// without a query string has no parameter collection; repeated keys keep
// their first value.
func ToRequest(r *http.Request) service.Request {
	req := service.Request{Path: r.URL.Path}
	if r.URL.RawQuery != "" {
		values := r.URL.Query()
		req.Query = make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				req.Query[k] = v[0]
			}
		}
	}
	if len(r.Header) > 0 {
		req.Headers = make(map[string]string, len(r.Header))
		for k := range r.Header {
			req.Headers[k] = r.Header.Get(k)
		}
	}
	return req
}

func writeEnvelope(w http.ResponseWriter, resp envelope.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}
