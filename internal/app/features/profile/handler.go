// internal/app/features/profile/handler.go

// Package profile serves the customer account page: contact details,
// password change, verification status and recent orders.
package profile

import (
	"fmt"
	"net/http"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/gates"
	"github.com/bsankara/koasa/internal/app/system/inputval"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/app/system/whatsapp"
	"github.com/bsankara/koasa/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength mirrors the signup rule.
const MinPasswordLength = 8

type Handler struct {
	DB         *mongo.Database
	SM         *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Audit      *auditlog.Logger
	AdminPhone string
}

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
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type profileData struct {
	viewdata.BaseVM

	FirstName string
	LastName  string
	Email     string
	Phone     string

	EmailVerified    bool
	WhatsAppVerified bool
	// VerifyURL points at the WhatsApp verification step when the number
	// is not verified yet.
	VerifyURL string

	RecentOrders []orderVM

	Error   string
	Success string
}

type orderVM struct {
	WhatsAppOrderID string
	Status          string
	StatusLabel     string
	Total           string
	CreatedAt       string
}

var statusLabels = map[string]string{
	models.OrderPending:    "En attente",
	models.OrderConfirmed:  "Confirmée",
	models.OrderDelivering: "En livraison",
	models.OrderDelivered:  "Livrée",
	models.OrderCancelled:  "Annulée",
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /profile                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeProfile renders the account page.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login?return=/profile")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile page")
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile user failed", err,
			"Impossible de charger votre compte.", "/")
		return
	}

	data := h.viewModel(r, user)
	switch query.Get(r, "success") {
	case "profile":
		data.Success = "Vos informations ont été mises à jour."
	case "password":
		data.Success = "Votre mot de passe a été changé."
	}

	orders, err := orderstore.New(h.DB).ListByUser(ctx, res.UserID)
	if err != nil {
		h.Log.Warn("load recent orders failed", zap.Error(err))
	}
	if len(orders) > 5 {
		orders = orders[:5]
	}
	for _, o := range orders {
		data.RecentOrders = append(data.RecentOrders, orderVM{
			WhatsAppOrderID: o.WhatsAppOrderID,
			Status:          o.Status,
			StatusLabel:     statusLabel(o.Status),
			Total:           whatsapp.FormatFCFA(o.TotalAmount),
			CreatedAt:       o.CreatedAt.Format("02/01/2006 15:04"),
		})
	}

	templates.Render(w, r, "profile_page", data)
}

func (h *Handler) viewModel(r *http.Request, user *models.User) profileData {
	data := profileData{
		BaseVM:           viewdata.NewBaseVM(r, h.SM, "Mon compte", "/"),
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Phone:            user.Phone,
		EmailVerified:    user.EmailVerified,
		WhatsAppVerified: user.WhatsAppVerified,
	}
	if !user.WhatsAppVerified {
		data.VerifyURL = "/register/whatsapp?email=" + user.Email
	}
	return data
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile – contact details                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateProfile saves the name and phone edits. A phone change voids
// the WhatsApp verification until the new number is confirmed.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login?return=/profile")
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse profile form failed", err,
			"Formulaire invalide.", "/profile")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile user failed", err,
			"Impossible de charger votre compte.", "/")
		return
	}

	upd := userstore.ProfileUpdate{
		FirstName: normalize.Name(r.FormValue("first_name")),
		LastName:  normalize.Name(r.FormValue("last_name")),
		Phone:     normalize.Phone(r.FormValue("phone")),
	}

	switch {
	case upd.FirstName == "" || upd.LastName == "":
		h.renderError(w, r, user, "Nom et prénom sont obligatoires.")
		return
	case !inputval.IsValidPhone(upd.Phone):
		h.renderError(w, r, user, "Numéro de téléphone invalide (format international, ex. +226...).")
		return
	}

	phoneChanged := upd.Phone != user.Phone

	if err := users.UpdateProfile(ctx, res.UserID, upd); err == userstore.ErrDuplicate {
		h.renderError(w, r, user, "Ce numéro est déjà utilisé par un autre compte.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err,
			"Impossible d'enregistrer les modifications.", "/profile")
		return
	}

	if phoneChanged {
		if err := users.ResetWhatsAppVerification(ctx, res.UserID); err != nil {
			h.ErrLog.LogServerError(w, r, "reset whatsapp verification failed", err,
				"Impossible d'enregistrer les modifications.", "/profile")
			return
		}
		if err := users.SetActivationToken(ctx, res.UserID, uuid.NewString()); err != nil {
			h.Log.Error("set activation token failed", zap.Error(err))
		}
		h.Log.Info("phone changed, whatsapp verification reset",
			zap.String("user_id", res.UserID.Hex()))
	}

	// Refresh the session so the navbar name and verification badge match.
	if fresh, err := users.GetByID(ctx, res.UserID); err == nil {
		if err := h.SM.SignIn(w, r, fresh); err != nil {
			h.Log.Warn("refresh session failed", zap.Error(err))
		}
	}

	h.Audit.ProfileUpdated(ctx, r, res.UserID, phoneChanged)

	if phoneChanged {
		http.Redirect(w, r, "/register/whatsapp?email="+user.Email, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/profile?success=profile", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile/password                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleChangePassword verifies the current password and stores a new hash.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login?return=/profile")
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse password form failed", err,
			"Formulaire invalide.", "/profile")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile user failed", err,
			"Impossible de charger votre compte.", "/")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		h.renderError(w, r, user, "Le mot de passe actuel est incorrect.")
		return
	}
	if len(next) < MinPasswordLength {
		h.renderError(w, r, user,
			fmt.Sprintf("Le nouveau mot de passe doit faire au moins %d caractères.", MinPasswordLength))
		return
	}
	if next != r.FormValue("new_password_confirm") {
		h.renderError(w, r, user, "Les deux mots de passe ne correspondent pas.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "bcrypt hash failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/profile")
		return
	}
	if err := users.UpdatePassword(ctx, res.UserID, string(hash)); err != nil {
		h.ErrLog.LogServerError(w, r, "update password failed", err,
			"Impossible de changer le mot de passe.", "/profile")
		return
	}

	h.Audit.PasswordChanged(ctx, r, res.UserID)
	http.Redirect(w, r, "/profile?success=password", http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, user *models.User, msg string) {
	data := h.viewModel(r, user)
	data.Error = msg
	templates.Render(w, r, "profile_page", data)
}
