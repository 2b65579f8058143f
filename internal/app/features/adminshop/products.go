// internal/app/features/adminshop/products.go
package adminshop

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/htmlsanitize"
	"github.com/bsankara/koasa/internal/app/system/inputval"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/domain/models"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/products – management page                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeProductsPage lists all products (available or not) with search.
func (h *Handler) ServeProductsPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin products")
	defer cancel()

	search := query.Get(r, "q")

	products, err := productstore.New(h.DB).List(ctx, productstore.Filter{Search: search})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list products failed", err,
			"Impossible de charger les produits.", "/admin")
		return
	}

	categories, err := categorystore.New(h.DB).List(ctx, false)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories failed", err,
			"Impossible de charger les catégories.", "/admin")
		return
	}

	catNames := make(map[primitive.ObjectID]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	data := struct {
		viewdata.BaseVM
		Products      []models.Product
		Categories    []models.Category
		CategoryNames map[primitive.ObjectID]string
		Search        string
	}{
		BaseVM:        viewdata.NewBaseVM(r, h.SM, "Produits", "/admin"),
		Products:      products,
		Categories:    categories,
		CategoryNames: catNames,
		Search:        search,
	}

	templates.Render(w, r, "admin_products", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON product CRUD                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	CategoryID  string  `json:"category_id"`
	ImageURL    string  `json:"image_url"`
	Stock       int     `json:"stock"`
	IsAvailable bool    `json:"is_available"`
}

func (h *Handler) productFromRequest(w http.ResponseWriter, r *http.Request) (models.Product, bool) {
	var req productRequest
	if !decodeJSONBody(w, r, &req) {
		return models.Product{}, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "Le nom du produit est obligatoire.")
		return models.Product{}, false
	}
	if !inputval.IsValidPrice(req.Price) {
		jsonError(w, http.StatusBadRequest, "Prix invalide.")
		return models.Product{}, false
	}
	if req.Stock < 0 {
		jsonError(w, http.StatusBadRequest, "Stock invalide.")
		return models.Product{}, false
	}

	catID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Catégorie invalide.")
		return models.Product{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category lookup")
	defer cancel()
	if _, err := categorystore.New(h.DB).GetByID(ctx, catID); err == mongo.ErrNoDocuments {
		jsonError(w, http.StatusBadRequest, "Catégorie introuvable.")
		return models.Product{}, false
	} else if err != nil {
		h.Log.Error("category lookup failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Erreur du serveur.")
		return models.Product{}, false
	}

	return models.Product{
		Name:        req.Name,
		Description: htmlsanitize.Sanitize(req.Description),
		Price:       req.Price,
		Unit:        strings.TrimSpace(req.Unit),
		CategoryID:  catID,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable,
	}, true
}

// CreateProduct inserts a product and assigns its public number.
// POST /api/admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	product, ok := h.productFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create product")
	defer cancel()

	saved, err := productstore.New(h.DB).Create(ctx, product)
	if err == productstore.ErrDuplicateName {
		jsonError(w, http.StatusConflict, "Un produit porte déjà ce nom.")
		return
	}
	if err != nil {
		h.Log.Error("create product failed", zap.String("name", product.Name), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de créer le produit.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "product_created", saved.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": saved})
}

// UpdateProduct rewrites a product's fields; its number never changes.
// PUT /api/admin/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Identifiant invalide.")
		return
	}

	product, ok := h.productFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update product")
	defer cancel()

	err = productstore.New(h.DB).Update(ctx, id, product)
	if err == productstore.ErrDuplicateName {
		jsonError(w, http.StatusConflict, "Un produit porte déjà ce nom.")
		return
	}
	if err == mongo.ErrNoDocuments {
		jsonError(w, http.StatusNotFound, "Produit introuvable.")
		return
	}
	if err != nil {
		h.Log.Error("update product failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de modifier le produit.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "product_updated", product.Name)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SetProductAvailability toggles whether a product can be ordered.
// POST /api/admin/products/{id}/availability
func (h *Handler) SetProductAvailability(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Identifiant invalide.")
		return
	}

	var req struct {
		IsAvailable bool `json:"is_available"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set availability")
	defer cancel()

	if err := productstore.New(h.DB).SetAvailability(ctx, id, req.IsAvailable); err != nil {
		h.Log.Error("set availability failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de modifier la disponibilité.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteProduct removes a product from the catalog. Existing orders keep
// their copied line data.
// DELETE /api/admin/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Identifiant invalide.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete product")
	defer cancel()

	if err := productstore.New(h.DB).Delete(ctx, id); err != nil {
		h.Log.Error("delete product failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de supprimer le produit.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "product_deleted", id.Hex())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
