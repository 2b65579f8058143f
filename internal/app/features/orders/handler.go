// internal/app/features/orders/handler.go
package orders

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/authz"
	"github.com/bsankara/koasa/internal/app/system/cart"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/htmlsanitize"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/app/system/whatsapp"
	"github.com/bsankara/koasa/internal/domain/models"
)

// Handler owns order submission and the customer's order history.
type Handler struct {
	DB     *mongo.Database
	SM     *auth.SessionManager
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger

	// AdminPhone is the WhatsApp number (international format) that receives
	// order messages.
	AdminPhone string
}

// NewHandler constructs an orders Handler.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger, adminPhone string) *Handler {
	return &Handler{
		DB:         db,
		SM:         sm,
		Log:        logger,
		ErrLog:     errLog,
		Audit:      audit,
		AdminPhone: adminPhone,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/send-order-whatsapp – order submission                            |
*─────────────────────────────────────────────────────────────────────────────*/

type submitLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Unit      string  `json:"unit"`
}

type submitRequest struct {
	Items           []submitLine `json:"items"`
	Total           float64      `json:"total"`
	DeliveryAddress string       `json:"delivery_address"`
	Notes           string       `json:"notes"`
}

// SubmitOrder revalidates the submitted cart against the product store,
// persists the order, and returns the wa.me link that opens the admin chat
// with the full recap pre-filled. Lines that are unknown, unavailable, or
// have a non-positive quantity are skipped; prices always come from the
// store, never from the client. Failure persists nothing.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	u, signedIn := auth.CurrentUser(r)
	if !signedIn {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Veuillez vous connecter pour commander.",
		})
		return
	}
	if !authz.IsWhatsAppVerified(r) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"message": "Veuillez vérifier votre numéro WhatsApp avant de commander.",
		})
		return
	}

	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Corps de requête invalide.",
		})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Votre panier est vide.",
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "submit order")
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		h.Log.Error("bad user id in session", zap.String("user_id", u.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Erreur du serveur. Veuillez réessayer.",
		})
		return
	}

	account, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("load account for order failed", zap.String("user_id", u.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Erreur du serveur. Veuillez réessayer.",
		})
		return
	}

	// Revalidate every line against the catalog. Skipped lines are logged;
	// the order only carries lines that are real and available right now.
	prodStore := productstore.New(h.DB)
	var items []models.OrderItem
	var recapLines []whatsapp.Line
	var total float64
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			h.Log.Warn("order line skipped: non-positive quantity",
				zap.Int64("product_id", line.ProductID), zap.Float64("quantity", line.Quantity))
			continue
		}
		product, err := prodStore.GetByNumber(ctx, line.ProductID)
		if err == mongo.ErrNoDocuments {
			h.Log.Warn("order line skipped: unknown product", zap.Int64("product_id", line.ProductID))
			continue
		}
		if err != nil {
			h.Log.Error("order line lookup failed", zap.Int64("product_id", line.ProductID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"message": "Erreur du serveur. Veuillez réessayer.",
			})
			return
		}
		if !product.IsAvailable {
			h.Log.Warn("order line skipped: product unavailable", zap.Int64("product_id", line.ProductID))
			continue
		}

		subtotal := product.Price * line.Quantity
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Unit:        product.Unit,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		recapLines = append(recapLines, whatsapp.Line{
			Name:      product.Name,
			Quantity:  line.Quantity,
			Unit:      product.Unit,
			UnitPrice: product.Price,
		})
		total += subtotal
	}

	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Aucun produit valide dans votre panier. Veuillez l'actualiser.",
		})
		return
	}

	now := time.Now()
	order := models.Order{
		UserID:          userID,
		CustomerName:    account.FullName(),
		CustomerPhone:   account.Phone,
		CustomerEmail:   account.Email,
		OrderNumber:     models.NewOrderNumber(now),
		WhatsAppOrderID: models.NewWhatsAppOrderID(now),
		Items:           items,
		TotalAmount:     total,
		Status:          models.OrderPending,
		DeliveryAddress: htmlsanitize.StripTags(req.DeliveryAddress),
		Notes:           htmlsanitize.StripTags(req.Notes),
	}

	saved, err := orderstore.New(h.DB).Create(ctx, order)
	if err != nil {
		h.Log.Error("persist order failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Impossible d'enregistrer la commande. Veuillez réessayer.",
		})
		return
	}

	waURL := whatsapp.OrderLink(h.AdminPhone, whatsapp.OrderRecap{
		OrderID: saved.WhatsAppOrderID,
		Customer: whatsapp.Customer{
			Name:  saved.CustomerName,
			Phone: saved.CustomerPhone,
			Email: saved.CustomerEmail,
		},
		Lines:           recapLines,
		Total:           total,
		DeliveryAddress: saved.DeliveryAddress,
		Notes:           saved.Notes,
		When:            now,
	})

	// The session owns the cart: empty it here so a reload after ordering
	// cannot resubmit, whatever happens to the client afterwards.
	if h.SM != nil {
		if err := h.SM.SaveCart(w, r, cart.New()); err != nil {
			h.Log.Warn("clear cart after order failed", zap.Error(err))
		}
	}

	h.Audit.OrderSubmitted(ctx, r, userID, saved.WhatsAppOrderID, whatsapp.FormatFCFA(total))
	h.Log.Info("order submitted",
		zap.String("order_number", saved.OrderNumber),
		zap.String("whatsapp_order_id", saved.WhatsAppOrderID),
		zap.Float64("total", total),
		zap.Int("lines", len(items)))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Commande enregistrée. Ouverture de WhatsApp...",
		"whatsapp_url": waURL,
		"order_id":     saved.WhatsAppOrderID,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /orders – customer order history                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeOrdersPage lists the signed-in customer's orders, newest first.
func (h *Handler) ServeOrdersPage(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login?return=/orders")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "order history")
	defer cancel()

	orders, err := orderstore.New(h.DB).ListByUser(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list orders failed", err,
			"Impossible de charger vos commandes. Veuillez réessayer.", "/")
		return
	}

	data := struct {
		viewdata.BaseVM
		Orders []models.Order
	}{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Mes commandes", "/"),
		Orders: orders,
	}

	templates.Render(w, r, "orders_list", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
