// Package site serves the public results page.
package site

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// assets lists the only paths the page serves.
var assets = map[string]bool{"/": true, "/index.html": true, "/app.js": true, "/style.css": true}

// Register attaches the results page to mux at "/". Only the page assets are
// served; anything else is a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewPageHandler())
}

// PageHandler serves the embedded results page.
type PageHandler struct {
	files http.Handler
}

// NewPageHandler creates a page handler over the embedded assets.
func NewPageHandler() *PageHandler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return &PageHandler{files: http.FileServer(http.FS(sub))}
}

// ServeHTTP implements http.Handler.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !assets[r.URL.Path] {
		http.NotFound(w, r)
		return
	}
	// Standings change live; the page must not be served from a stale cache.
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
