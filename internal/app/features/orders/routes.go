package orders

import "github.com/go-chi/chi/v5"

// Routes returns the customer order-history route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeOrdersPage)
	return r
}
