package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/index.html
var staticFS embed.FS

// FS returns an http.FileSystem for the embedded landing page.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Unreachable while the embed directive names static/.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
