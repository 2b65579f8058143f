package catalog

import "github.com/go-chi/chi/v5"

// Routes returns the public catalog routes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoot)
	return r
}

// APIRoutes returns the product JSON routes mounted under /api/products.
func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.ServeProductJSON)
	return r
}
