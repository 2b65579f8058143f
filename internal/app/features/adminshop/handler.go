// internal/app/features/adminshop/handler.go

// Package adminshop owns the admin back office: product and category
// management, CSV product import, and the order pipeline (confirm, move
// through delivery). All routes are mounted behind RequireRole("admin").
package adminshop

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
)

// Handler holds the dependencies shared by all admin shop handlers.
type Handler struct {
	DB     *mongo.Database
	SM     *auth.SessionManager
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger
}

// NewHandler constructs an adminshop Handler.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		SM:     sm,
		Log:    logger,
		ErrLog: errLog,
		Audit:  audit,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin – dashboard                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDashboard shows order counts per status and catalog totals.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin dashboard")
	defer cancel()

	statusCounts, err := orderstore.New(h.DB).CountByStatus(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count orders failed", err,
			"Impossible de charger le tableau de bord.", "/")
		return
	}

	productCount, err := productstore.New(h.DB).Count(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count products failed", err,
			"Impossible de charger le tableau de bord.", "/")
		return
	}

	categoryCount, err := categorystore.New(h.DB).Count(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count categories failed", err,
			"Impossible de charger le tableau de bord.", "/")
		return
	}

	data := struct {
		viewdata.BaseVM
		Pending    int64
		Confirmed  int64
		Delivering int64
		Delivered  int64
		Cancelled  int64
		Products   int64
		Categories int64
	}{
		BaseVM:     viewdata.NewBaseVM(r, h.SM, "Administration", "/"),
		Pending:    statusCounts["pending"],
		Confirmed:  statusCounts["confirmed"],
		Delivering: statusCounts["delivering"],
		Delivered:  statusCounts["delivered"],
		Cancelled:  statusCounts["cancelled"],
		Products:   productCount,
		Categories: categoryCount,
	}

	templates.Render(w, r, "admin_dashboard", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON helpers shared by the admin API handlers                               |
*─────────────────────────────────────────────────────────────────────────────*/

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, http.StatusBadRequest, "Corps de requête invalide.")
		return false
	}
	return true
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
