// Package site serves the embedded landing page.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("landing page serve failed")
)

// Register attaches the landing page to the exact root path of mux. Every
// other unmatched path still falls through to the mux 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// HandleRoot handles GET / requests and serves the embedded index page
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
