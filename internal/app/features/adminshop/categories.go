// internal/app/features/adminshop/categories.go
package adminshop

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/htmlsanitize"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/domain/models"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/categories – management page                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeCategoriesPage lists every category with its product count.
func (h *Handler) ServeCategoriesPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin categories")
	defer cancel()

	categories, err := categorystore.New(h.DB).List(ctx, false)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories failed", err,
			"Impossible de charger les catégories.", "/admin")
		return
	}

	prodStore := productstore.New(h.DB)
	counts := make(map[primitive.ObjectID]int64, len(categories))
	for _, c := range categories {
		n, err := prodStore.CountByCategory(ctx, c.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "count products per category failed", err,
				"Impossible de charger les catégories.", "/admin")
			return
		}
		counts[c.ID] = n
	}

	data := struct {
		viewdata.BaseVM
		Categories    []models.Category
		ProductCounts map[primitive.ObjectID]int64
	}{
		BaseVM:        viewdata.NewBaseVM(r, h.SM, "Catégories", "/admin"),
		Categories:    categories,
		ProductCounts: counts,
	}

	templates.Render(w, r, "admin_categories", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON category CRUD                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsActive    bool   `json:"is_active"`
}

func categoryFromRequest(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	var req categoryRequest
	if !decodeJSONBody(w, r, &req) {
		return models.Category{}, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "Le nom de la catégorie est obligatoire.")
		return models.Category{}, false
	}

	return models.Category{
		Name:        req.Name,
		Description: htmlsanitize.StripTags(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		IsActive:    req.IsActive,
	}, true
}

// CreateCategory inserts a category.
// POST /api/admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	category, ok := categoryFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create category")
	defer cancel()

	saved, err := categorystore.New(h.DB).Create(ctx, category)
	if err == categorystore.ErrDuplicateName {
		jsonError(w, http.StatusConflict, "Une catégorie porte déjà ce nom.")
		return
	}
	if err != nil {
		h.Log.Error("create category failed", zap.String("name", category.Name), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de créer la catégorie.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "category_created", saved.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "category": saved})
}

// UpdateCategory rewrites a category's fields.
// PUT /api/admin/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Identifiant invalide.")
		return
	}

	category, ok := categoryFromRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update category")
	defer cancel()

	err = categorystore.New(h.DB).Update(ctx, id, category)
	if err == categorystore.ErrDuplicateName {
		jsonError(w, http.StatusConflict, "Une catégorie porte déjà ce nom.")
		return
	}
	if err == mongo.ErrNoDocuments {
		jsonError(w, http.StatusNotFound, "Catégorie introuvable.")
		return
	}
	if err != nil {
		h.Log.Error("update category failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de modifier la catégorie.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "category_updated", category.Name)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteCategory removes a category, refused while any product references it.
// DELETE /api/admin/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "", "/")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Identifiant invalide.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete category")
	defer cancel()

	inUse, err := productstore.New(h.DB).CountByCategory(ctx, id)
	if err != nil {
		h.Log.Error("count products per category failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Erreur du serveur.")
		return
	}
	if inUse > 0 {
		jsonError(w, http.StatusConflict,
			"Des produits utilisent encore cette catégorie. Déplacez-les d'abord.")
		return
	}

	if err := categorystore.New(h.DB).Delete(ctx, id); err != nil {
		h.Log.Error("delete category failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de supprimer la catégorie.")
		return
	}

	h.Audit.CatalogChanged(ctx, r, res.UserID, "category_deleted", id.Hex())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
