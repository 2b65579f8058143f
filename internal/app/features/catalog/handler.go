// internal/app/features/catalog/handler.go
package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/domain/models"
)

// Handler serves the public storefront: the product listing and the
// product detail JSON used by the browser cart.
type Handler struct {
	DB     *mongo.Database
	SM     *auth.SessionManager
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a catalog Handler bound to the given Mongo database,
// session manager, and logger.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		SM:     sm,
		Log:    logger,
		ErrLog: errLog,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – storefront listing                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot renders the storefront with optional search and category filter.
// GET /?q=...&category=<hex id>
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "catalog list")
	defer cancel()

	search := query.Get(r, "q")
	categoryParam := query.Get(r, "category")

	filter := productstore.Filter{
		Search:        search,
		AvailableOnly: true,
	}
	if categoryParam != "" {
		if catID, err := primitive.ObjectIDFromHex(categoryParam); err == nil {
			filter.CategoryID = catID
		}
	}

	prodStore := productstore.New(h.DB)
	products, err := prodStore.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list products failed", err,
			"Impossible de charger les produits. Veuillez réessayer.", "/")
		return
	}

	catStore := categorystore.New(h.DB)
	categories, err := catStore.List(ctx, true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories failed", err,
			"Impossible de charger les catégories. Veuillez réessayer.", "/")
		return
	}

	data := struct {
		viewdata.BaseVM
		Products         []models.Product
		Categories       []models.Category
		Search           string
		SelectedCategory string
	}{
		BaseVM:           viewdata.NewBaseVM(r, h.SM, "Accueil", "/"),
		Products:         products,
		Categories:       categories,
		Search:           search,
		SelectedCategory: categoryParam,
	}

	templates.Render(w, r, "catalog_list", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/products/{id} – product detail JSON                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeProductJSON returns one product as JSON, looked up by its public
// integer id. The browser cart uses this to refresh price and availability.
func (h *Handler) ServeProductJSON(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || number < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Identifiant de produit invalide.",
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "product detail")
	defer cancel()

	prodStore := productstore.New(h.DB)
	product, err := prodStore.GetByNumber(ctx, number)
	if err == mongo.ErrNoDocuments {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "Produit introuvable.",
		})
		return
	}
	if err != nil {
		h.Log.Error("product lookup failed", zap.Int64("number", number), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Erreur du serveur. Veuillez réessayer.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": product,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
