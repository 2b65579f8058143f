// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	SM    *auth.SessionManager
	Log   *zap.Logger
	Audit *auditlog.Logger
}

func NewHandler(sm *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SM: sm, Log: logger, Audit: audit}
}

// HandleLogout handles POST /logout. The navbar submits it as a form so
// the CSRF middleware covers it.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}

	if err := h.SM.SignOut(w, r); err != nil {
		h.Log.Warn("sign out failed", zap.Error(err))
	}

	h.Audit.Logout(r.Context(), r, userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
