// internal/app/features/login/handler.go
package login

import (
	"net/http"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/navigation"
	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/app/system/ratelimit"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// badCredentials is deliberately identical for unknown emails and wrong
// passwords so the form cannot be used to probe which accounts exist.
const badCredentials = "Email ou mot de passe incorrect."

type Handler struct {
	DB      *mongo.Database
	SM      *auth.SessionManager
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		SM:      sm,
		Log:     logger,
		ErrLog:  errLog,
		Audit:   audit,
		Limiter: limiter,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLoginForm(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login_form", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.SM, "Connexion", "/"),
		ReturnURL: navigation.SafeBackURL(r, navigation.LoginBackURL),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err,
			"Formulaire invalide.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := navigation.SafeBackURL(r, navigation.LoginBackURL)

	if email == "" || password == "" {
		h.renderError(w, r, email, ret, "Email et mot de passe sont obligatoires.")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("email", email), zap.String("reason", reason))
			h.renderError(w, r, email, ret,
				"Trop de tentatives de connexion. Patientez quelques minutes.")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	switch {
	case err == mongo.ErrNoDocuments:
		h.Audit.LoginFailed(ctx, r, email, "unknown email")
		h.renderError(w, r, email, ret, badCredentials)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load user for login failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/login")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		h.Audit.LoginFailed(ctx, r, email, "wrong password")
		h.renderError(w, r, email, ret, badCredentials)
		return
	}

	if !u.IsActive {
		h.Audit.LoginFailed(ctx, r, email, "account not activated")
		h.renderError(w, r, email, ret,
			"Votre compte n'est pas encore activé. Terminez la vérification de votre email et de votre WhatsApp.")
		return
	}

	if err := h.SM.SignIn(w, r, u); err != nil {
		h.ErrLog.LogServerError(w, r, "create session failed", err,
			"Impossible d'ouvrir la session. Veuillez réessayer.", "/login")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, email)
	h.Log.Info("customer signed in", zap.String("email", email))

	http.Redirect(w, r, ret, http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, email, ret, msg string) {
	templates.Render(w, r, "login_form", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.SM, "Connexion", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
