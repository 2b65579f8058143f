package cart

import "github.com/go-chi/chi/v5"

// Routes returns the cart page route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeCartPage)
	return r
}

// APIRoutes returns the JSON cart routes mounted under /api/cart.
func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCart)
	r.Delete("/", h.ClearCart)
	r.Post("/items", h.AddItem)
	r.Put("/items/{productID}", h.UpdateItem)
	r.Delete("/items/{productID}", h.RemoveItem)
	return r
}
