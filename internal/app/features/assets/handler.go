// internal/app/features/assets/handler.go

// Package assets proxies the pinned CDN libraries through the origin, served
// cache-first from the in-memory swcache store. The page only ever loads
// framework CSS/JS from /cdn/*, so a degraded or unreachable upstream keeps
// serving previously fetched copies, and the service worker sees them as
// same-origin responses.
package assets

import (
	"net/http"
	"strings"

	"github.com/bsankara/koasa/internal/app/system/swcache"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// libraries maps the first /cdn path segment to a pinned upstream version.
// Only paths under these prefixes resolve; everything else is a 404.
var libraries = map[string]string{
	"bootstrap":   "https://cdnjs.cloudflare.com/ajax/libs/bootstrap/5.3.3/",
	"fontawesome": "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.2/",
}

// headersToCopy are the upstream response headers forwarded to the client.
var headersToCopy = []string{"Content-Type", "Last-Modified", "ETag"}

type Handler struct {
	Policy *swcache.Policy
	Log    *zap.Logger
}

func NewHandler(policy *swcache.Policy, logger *zap.Logger) *Handler {
	return &Handler{Policy: policy, Log: logger}
}

// Resolve maps a /cdn request path to the pinned upstream URL. The empty
// string means the path does not belong to a known library.
func Resolve(path string) string {
	rest := strings.TrimPrefix(path, "/cdn/")
	lib, file, ok := strings.Cut(rest, "/")
	if !ok || file == "" || strings.Contains(file, "..") {
		return ""
	}
	base, ok := libraries[lib]
	if !ok {
		return ""
	}
	return base + file
}

// PrecacheURLs lists the upstream URLs behind the layout's /cdn references,
// fetched into the static cache at startup.
func PrecacheURLs() []string {
	return []string{
		Resolve("/cdn/bootstrap/css/bootstrap.min.css"),
		Resolve("/cdn/bootstrap/js/bootstrap.bundle.min.js"),
		Resolve("/cdn/fontawesome/css/all.min.css"),
	}
}

// ServeAsset handles GET /cdn/*.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	upstream := Resolve(r.URL.Path)
	if upstream == "" {
		http.NotFound(w, r)
		return
	}

	entry, err := h.Policy.Serve(r.Context(), upstream, false)
	if err != nil {
		h.Log.Warn("cdn asset unavailable",
			zap.String("url", upstream), zap.Error(err))
		http.Error(w, "asset unavailable", http.StatusBadGateway)
		return
	}

	for _, name := range headersToCopy {
		if v := entry.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	// Versions are pinned in the URL mapping, so long client caching is safe.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(entry.Status)
	w.Write(entry.Body)
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServeAsset)
	return r
}
