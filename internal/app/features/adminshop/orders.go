// internal/app/features/adminshop/orders.go
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

	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/paging"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/domain/models"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/orders – order pipeline                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeOrdersPage lists orders newest first with a status filter and
// look-ahead paging (?start=N, 1-based).
func (h *Handler) ServeOrdersPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin orders")
	defer cancel()

	status := strings.ToLower(strings.TrimSpace(query.Get(r, "status")))
	if status != "" && !models.IsValidOrderStatus(status) {
		status = ""
	}
	start := paging.ParseStart(r)

	orders, err := orderstore.New(h.DB).ListAll(ctx, orderstore.Filter{
		Status: status,
		Skip:   int64(start - 1),
		Limit:  paging.LimitPlusOne(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list orders failed", err,
			"Impossible de charger les commandes.", "/admin")
		return
	}

	hasNext := len(orders) > paging.PageSize
	if hasNext {
		orders = orders[:paging.PageSize]
	}
	rng := paging.ComputeRange(start, len(orders))

	data := struct {
		viewdata.BaseVM
		Orders   []models.Order
		Status   string
		Statuses []string
		Range    paging.Range
		HasPrev  bool
		HasNext  bool
	}{
		BaseVM:   viewdata.NewBaseVM(r, h.SM, "Commandes", "/admin"),
		Orders:   orders,
		Status:   status,
		Statuses: models.OrderStatuses,
		Range:    rng,
		HasPrev:  start > 1,
		HasNext:  hasNext,
	}

	templates.Render(w, r, "admin_orders", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/admin/orders/{id}/status – move an order through its lifecycle    |
*─────────────────────────────────────────────────────────────────────────────*/

// UpdateOrderStatus sets an order's status. Confirming stamps the
// admin_confirmed_at time in the store.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
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
		Status string `json:"status"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update order status")
	defer cancel()

	ordStore := orderstore.New(h.DB)
	before, err := ordStore.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		jsonError(w, http.StatusNotFound, "Commande introuvable.")
		return
	}
	if err != nil {
		h.Log.Error("load order failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Erreur du serveur.")
		return
	}

	err = ordStore.UpdateStatus(ctx, id, req.Status)
	if err == orderstore.ErrBadStatus {
		jsonError(w, http.StatusBadRequest, "Statut invalide.")
		return
	}
	if err == orderstore.ErrNotFound {
		jsonError(w, http.StatusNotFound, "Commande introuvable.")
		return
	}
	if err != nil {
		h.Log.Error("update order status failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "Impossible de modifier le statut.")
		return
	}

	h.Audit.OrderStatusChanged(ctx, r, res.UserID, before.WhatsAppOrderID, before.Status, req.Status)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
