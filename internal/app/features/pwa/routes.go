// internal/app/features/pwa/routes.go
package pwa

import "github.com/go-chi/chi/v5"

// Register mounts the PWA endpoints on the root router. They must live at
// the top level: the manifest path is fixed by the layout template and the
// service worker's scope is its own path.
func Register(r chi.Router, h *Handler) {
	r.Get("/manifest.json", h.ServeManifest)
	r.Get("/sw.js", h.ServeServiceWorker)
}
