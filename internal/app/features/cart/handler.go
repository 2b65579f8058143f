// internal/app/features/cart/handler.go
package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/cart"
	"github.com/bsankara/koasa/internal/app/system/inputval"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
)

// Handler serves the cart page and the JSON cart API. The cart itself lives
// in the session cookie; every mutating handler saves the session before
// responding so a reload reconstructs the same cart.
type Handler struct {
	DB     *mongo.Database
	SM     *auth.SessionManager
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	// QuantityStep is the granularity quantities must align to (default 0.5 kg).
	QuantityStep float64
}

// NewHandler constructs a cart Handler. quantityStep at or below zero falls
// back to the default step.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger, quantityStep float64) *Handler {
	if quantityStep <= 0 {
		quantityStep = cart.DefaultQuantityStep
	}
	return &Handler{
		DB:           db,
		SM:           sm,
		Log:          logger,
		ErrLog:       errLog,
		QuantityStep: quantityStep,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /cart – cart page                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeCartPage renders the cart with the order form. The page is rendered
// server-side from the session cart; main.js keeps it current after that.
func (h *Handler) ServeCartPage(w http.ResponseWriter, r *http.Request) {
	c := h.SM.Cart(r)

	data := struct {
		viewdata.BaseVM
		Items []cart.Item
		Total float64
	}{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Mon panier", "/"),
		Items:  c.Items(),
		Total:  c.Total(),
	}

	templates.Render(w, r, "cart_page", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON cart API                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// GetCart returns the session cart as JSON.
// GET /api/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.SM.Cart(r)
	writeJSON(w, http.StatusOK, cartPayload(c))
}

// AddItem adds one unit of a product to the cart. The product is looked up
// server-side so the stored line always carries the current name, price, and
// unit; unavailable products are refused with 409 and the cart is untouched.
// POST /api/cart/items {"product_id": N}
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ProductID < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Identifiant de produit invalide.",
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "cart add lookup")
	defer cancel()

	product, err := productstore.New(h.DB).GetByNumber(ctx, req.ProductID)
	if err == mongo.ErrNoDocuments {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "Produit introuvable.",
		})
		return
	}
	if err != nil {
		h.Log.Error("cart add lookup failed", zap.Int64("product_id", req.ProductID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Erreur du serveur. Veuillez réessayer.",
		})
		return
	}
	if !product.IsAvailable {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"message": "Ce produit n'est plus disponible.",
		})
		return
	}

	c := h.SM.Cart(r)
	c.Add(product.Number, product.Name, product.Price, product.Unit)
	if !h.saveCart(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(c))
}

// UpdateItem sets the quantity of a cart line. A quantity at or below zero
// removes the line; positive quantities must align to the configured step.
// PUT /api/cart/items/{productID} {"quantity": Q}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Quantity > 0 && !inputval.IsValidQuantity(req.Quantity, h.QuantityStep) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Quantité invalide.",
		})
		return
	}

	c := h.SM.Cart(r)
	c.SetQuantity(productID, req.Quantity)
	if !h.saveCart(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(c))
}

// RemoveItem deletes a cart line. Removing an absent product succeeds.
// DELETE /api/cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	c := h.SM.Cart(r)
	c.Remove(productID)
	if !h.saveCart(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(c))
}

// ClearCart empties the cart.
// DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.SM.Cart(r)
	c.Clear()
	if !h.saveCart(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(c))
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request, c *cart.Cart) bool {
	if err := h.SM.SaveCart(w, r, c); err != nil {
		h.Log.Error("save cart session failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Erreur du serveur. Veuillez réessayer.",
		})
		return false
	}
	return true
}

func cartPayload(c *cart.Cart) map[string]any {
	items := c.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return map[string]any{
		"success": true,
		"items":   items,
		"total":   c.Total(),
		"count":   c.Len(),
		"units":   c.UnitCount(),
	}
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Identifiant de produit invalide.",
		})
		return 0, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Corps de requête invalide.",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
