package adminshop

import "github.com/go-chi/chi/v5"

// Routes returns the admin HTML pages, mounted under /admin behind
// RequireRole("admin").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeDashboard)
	r.Get("/products", h.ServeProductsPage)
	r.Post("/products/import", h.ImportProductsCSV)
	r.Get("/categories", h.ServeCategoriesPage)
	r.Get("/orders", h.ServeOrdersPage)
	return r
}

// APIRoutes returns the admin JSON routes, mounted under /api/admin.
func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Post("/products/{id}/availability", h.SetProductAvailability)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Post("/orders/{id}/status", h.UpdateOrderStatus)
	return r
}
