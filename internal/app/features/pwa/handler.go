// internal/app/features/pwa/handler.go

// Package pwa serves the installability surface: the web app manifest and
// the service worker script. The worker script is a template so its cache
// names stay in lockstep with the configured cache version; bumping the
// version in config invalidates every client's static cache on next visit.
package pwa

import (
	"bytes"
	"embed"
	"encoding/json"
	"net/http"
	"text/template"

	"go.uber.org/zap"
)

//go:embed sw.js.tmpl
var swTemplate embed.FS

// CDNHost is the one cross-origin host the service worker may intercept.
const CDNHost = "cdnjs.cloudflare.com"

// PrecacheManifest lists the URLs committed to the static cache at
// service-worker install time. The /cdn paths resolve through the asset
// proxy, so the browser caches them as same-origin responses.
func PrecacheManifest() []string {
	return []string{
		"/",
		"/static/css/styles.css",
		"/static/js/main.js",
		"/static/js/pwa-installer.js",
		"/static/img/favicon.svg",
		"/cdn/bootstrap/css/bootstrap.min.css",
		"/cdn/bootstrap/js/bootstrap.bundle.min.js",
		"/cdn/fontawesome/css/all.min.css",
	}
}

type Handler struct {
	Log          *zap.Logger
	CacheVersion string

	sw       []byte
	manifest []byte
}

// NewHandler renders the service worker script and the manifest once;
// both are immutable for the process lifetime.
func NewHandler(cacheVersion string, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(swTemplate, "sw.js.tmpl")
	if err != nil {
		return nil, err
	}

	precache, err := json.Marshal(PrecacheManifest())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"CacheVersion": cacheVersion,
		"Precache":     string(precache),
		"CDNHost":      CDNHost,
	})
	if err != nil {
		return nil, err
	}

	manifest, err := json.MarshalIndent(map[string]any{
		"name":             "KOASA - Livraison de viande",
		"short_name":       "KOASA",
		"description":      "Viande fraîche livrée à Ouagadougou, commande via WhatsApp.",
		"lang":             "fr",
		"start_url":        "/",
		"display":          "standalone",
		"background_color": "#ffffff",
		"theme_color":      "#c0392b",
		"icons": []map[string]string{
			{
				"src":     "/static/img/icon.svg",
				"sizes":   "any",
				"type":    "image/svg+xml",
				"purpose": "any",
			},
		},
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	return &Handler{
		Log:          logger,
		CacheVersion: cacheVersion,
		sw:           buf.Bytes(),
		manifest:     manifest,
	}, nil
}

// ServeManifest handles GET /manifest.json.
func (h *Handler) ServeManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(h.manifest)
}

// ServeServiceWorker handles GET /sw.js. The no-cache header makes the
// browser revalidate the script on navigation, which is how a new cache
// version reaches installed clients.
func (h *Handler) ServeServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Write(h.sw)
}
