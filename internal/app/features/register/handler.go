// internal/app/features/register/handler.go

// Package register owns account signup and the two verification steps that
// follow: the emailed 6-digit code that confirms the address, and the
// WhatsApp hand-off (activation token or OTP) that confirms the number
// orders will be discussed on.
package register

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/inputval"
	"github.com/bsankara/koasa/internal/app/system/limits"
	"github.com/bsankara/koasa/internal/app/system/mailer"
	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/app/system/ratelimit"
	"github.com/bsankara/koasa/internal/app/system/timeouts"
	"github.com/bsankara/koasa/internal/app/system/viewdata"
	"github.com/bsankara/koasa/internal/app/system/whatsapp"
	"github.com/bsankara/koasa/internal/domain/models"
)

// MinPasswordLength is the smallest accepted password.
const MinPasswordLength = 8

type Handler struct {
	DB         *mongo.Database
	SM         *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Mailer     *mailer.Mailer
	Audit      *auditlog.Logger
	Limiter    *ratelimit.Limiter
	AdminPhone string
}

// NewHandler constructs a register Handler. limiter caps signup and
// verification attempts per client IP.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, m *mailer.Mailer, audit *auditlog.Logger, limiter *ratelimit.Limiter, logger *zap.Logger, adminPhone string) *Handler {
	return &Handler{
		DB:         db,
		SM:         sm,
		Log:        logger,
		ErrLog:     errLog,
		Mailer:     m,
		Audit:      audit,
		Limiter:    limiter,
		AdminPhone: adminPhone,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type registerFormData struct {
	viewdata.BaseVM
	Error     string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type verifyFormData struct {
	viewdata.BaseVM
	Error  string
	Email  string
	Resent bool
}

type whatsappFormData struct {
	viewdata.BaseVM
	Error          string
	Email          string
	Phone          string
	ActivationLink string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /register – signup form                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRegisterForm renders the signup form.
func (h *Handler) ServeRegisterForm(w http.ResponseWriter, r *http.Request) {
	data := registerFormData{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Inscription", "/"),
	}
	templates.Render(w, r, "register_form", data)
}

// HandleRegister creates the account and mails the verification code.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.renderRegisterError(w, r, registerFormData{},
			"Trop de tentatives. Patientez quelques minutes.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse register form failed", err,
			"Formulaire invalide.", "/register")
		return
	}

	form := registerFormData{
		FirstName: normalize.Name(r.FormValue("first_name")),
		LastName:  normalize.Name(r.FormValue("last_name")),
		Email:     normalize.Email(r.FormValue("email")),
		Phone:     normalize.Phone(r.FormValue("phone")),
	}
	password := r.FormValue("password")

	switch {
	case form.FirstName == "" || form.LastName == "":
		h.renderRegisterError(w, r, form, "Nom et prénom sont obligatoires.")
		return
	case !inputval.IsValidEmail(form.Email):
		h.renderRegisterError(w, r, form, "Adresse email invalide.")
		return
	case !inputval.IsValidPhone(form.Phone):
		h.renderRegisterError(w, r, form, "Numéro de téléphone invalide (format international, ex. +226...).")
		return
	case len(password) < MinPasswordLength:
		h.renderRegisterError(w, r, form,
			fmt.Sprintf("Le mot de passe doit faire au moins %d caractères.", MinPasswordLength))
		return
	case password != r.FormValue("password_confirm"):
		h.renderRegisterError(w, r, form, "Les deux mots de passe ne correspondent pas.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "bcrypt hash failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.Create(ctx, models.User{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Phone:        form.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	})
	if err == userstore.ErrDuplicate {
		h.renderRegisterError(w, r, form, "Un compte existe déjà avec cet email ou ce numéro.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err,
			"Impossible de créer le compte. Veuillez réessayer.", "/register")
		return
	}

	if err := users.SetActivationToken(ctx, user.ID, uuid.NewString()); err != nil {
		h.Log.Error("set activation token failed", zap.Error(err))
	}

	if err := h.sendEmailCode(ctx, r, users, &user); err != nil {
		h.ErrLog.LogServerError(w, r, "send verification email failed", err,
			"Impossible d'envoyer le code de vérification. Veuillez réessayer.", "/register")
		return
	}

	h.Log.Info("account created", zap.String("email", user.Email))
	http.Redirect(w, r, "/register/verify?email="+url.QueryEscape(user.Email), http.StatusSeeOther)
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, form registerFormData, msg string) {
	form.BaseVM = viewdata.NewBaseVM(r, h.SM, "Inscription", "/")
	form.Error = msg
	templates.Render(w, r, "register_form", form)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /register/verify – email code                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeVerifyForm renders the code-entry form.
func (h *Handler) ServeVerifyForm(w http.ResponseWriter, r *http.Request) {
	data := verifyFormData{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Vérification de l'email", "/register"),
		Email:  normalize.Email(query.Get(r, "email")),
		Resent: query.Get(r, "resent") == "1",
	}
	templates.Render(w, r, "register_verify", data)
}

// HandleVerifyEmail checks the emailed code. Success moves the customer to
// the WhatsApp verification step.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.renderVerifyError(w, r, "", "Trop de tentatives. Patientez quelques minutes.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse verify form failed", err,
			"Formulaire invalide.", "/register")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify email code")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		h.renderVerifyError(w, r, email, "Code invalide ou expiré.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user for verification failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}

	if err := users.VerifyEmailCode(ctx, user.ID, code); err == userstore.ErrCodeInvalid {
		h.Audit.VerificationFailed(ctx, r, user.ID, "email", "bad or expired code")
		h.renderVerifyError(w, r, email, "Code invalide ou expiré.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "verify email code failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}

	h.Audit.AccountActivated(ctx, r, user.ID, "email_code")
	http.Redirect(w, r, "/register/whatsapp?email="+url.QueryEscape(email), http.StatusSeeOther)
}

// HandleResendCode mails a fresh verification code.
// POST /register/resend
func (h *Handler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.renderVerifyError(w, r, "", "Trop de tentatives. Patientez quelques minutes.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse resend form failed", err,
			"Formulaire invalide.", "/register")
		return
	}

	email := normalize.Email(r.FormValue("email"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resend email code")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByEmail(ctx, email)
	if err == nil && !user.EmailVerified {
		if serr := h.sendEmailCode(ctx, r, users, user); serr != nil {
			h.Log.Error("resend verification email failed", zap.Error(serr))
		}
	}

	// Same redirect whether or not the address exists, to avoid
	// account enumeration.
	http.Redirect(w, r, "/register/verify?email="+url.QueryEscape(email)+"&resent=1", http.StatusSeeOther)
}

func (h *Handler) renderVerifyError(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := verifyFormData{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Vérification de l'email", "/register"),
		Email:  email,
		Error:  msg,
	}
	templates.Render(w, r, "register_verify", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /register/whatsapp – WhatsApp verification                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeWhatsAppForm shows the WhatsApp step: a wa.me link that sends the
// activation token to the admin, plus an OTP entry field. A fresh OTP is
// generated on every visit so a stale code cannot linger.
func (h *Handler) ServeWhatsAppForm(w http.ResponseWriter, r *http.Request) {
	email := normalize.Email(query.Get(r, "email"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "whatsapp step")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		uierrors.RenderForbidden(w, r, "Compte introuvable. Recommencez l'inscription.", "/register")
		return
	}

	code, err := newDigitCode(6)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate otp failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}
	if err := users.SetOTP(ctx, user.ID, code); err != nil {
		h.ErrLog.LogServerError(w, r, "store otp failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}
	h.Audit.VerificationCodeSent(ctx, r, user.ID, "whatsapp")
	// The admin forwards the code over WhatsApp after receiving the
	// activation message; log it so a dev setup works without an admin.
	h.Log.Debug("whatsapp otp generated", zap.String("email", user.Email))

	data := whatsappFormData{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Vérification WhatsApp", "/register"),
		Email:  email,
		Phone:  user.Phone,
		ActivationLink: whatsapp.ActivationLink(
			h.AdminPhone, user.FullName(), user.Phone, user.ActivationToken),
	}
	templates.Render(w, r, "register_whatsapp", data)
}

// HandleWhatsAppVerify checks the OTP and activates the account.
func (h *Handler) HandleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		uierrors.RenderForbidden(w, r, "Trop de tentatives. Patientez quelques minutes.", "/register")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse whatsapp form failed", err,
			"Formulaire invalide.", "/register")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify otp")
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		uierrors.RenderForbidden(w, r, "Compte introuvable.", "/register")
		return
	}

	if err := users.VerifyOTP(ctx, user.ID, code); err == userstore.ErrCodeInvalid {
		h.Audit.VerificationFailed(ctx, r, user.ID, "whatsapp", "bad or expired otp")
		data := whatsappFormData{
			BaseVM: viewdata.NewBaseVM(r, h.SM, "Vérification WhatsApp", "/register"),
			Email:  email,
			Phone:  user.Phone,
			Error:  "Code invalide ou expiré.",
			ActivationLink: whatsapp.ActivationLink(
				h.AdminPhone, user.FullName(), user.Phone, user.ActivationToken),
		}
		templates.Render(w, r, "register_whatsapp", data)
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "verify otp failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/register")
		return
	}

	h.Audit.AccountActivated(ctx, r, user.ID, "whatsapp_otp")

	// Sign the customer in with the fully verified account.
	activated, err := users.GetByID(ctx, user.ID)
	if err == nil {
		if serr := h.SM.SignIn(w, r, activated); serr != nil {
			h.Log.Error("sign in after activation failed", zap.Error(serr))
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /activate – activation token hand-off                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleActivate consumes an activation token (received over WhatsApp) and
// activates the matching account in one step.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(query.Get(r, "token"))
	if token == "" {
		uierrors.RenderForbidden(w, r, "Jeton d'activation manquant.", "/")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activate token")
	defer cancel()

	user, err := userstore.New(h.DB).Activate(ctx, token)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderForbidden(w, r, "Jeton d'activation invalide ou déjà utilisé.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "activate token failed", err,
			"Erreur du serveur. Veuillez réessayer.", "/")
		return
	}

	h.Audit.AccountActivated(ctx, r, user.ID, "activation_token")
	h.Log.Info("account activated by token", zap.String("email", user.Email))

	data := struct {
		viewdata.BaseVM
		Name string
	}{
		BaseVM: viewdata.NewBaseVM(r, h.SM, "Compte activé", "/"),
		Name:   user.FullName(),
	}
	templates.Render(w, r, "register_activated", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// sendEmailCode generates, stores, and mails a fresh 6-digit code.
func (h *Handler) sendEmailCode(ctx context.Context, r *http.Request, users *userstore.Store, user *models.User) error {
	code, err := newDigitCode(6)
	if err != nil {
		return err
	}
	if err := users.SetEmailVerifyCode(ctx, user.ID, code); err != nil {
		return err
	}

	email := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  viewdata.SiteName,
		FirstName: user.FirstName,
		Code:      code,
		ExpiresIn: "5 minutes",
	})
	email.To = user.Email
	if err := h.Mailer.Send(email); err != nil {
		return err
	}

	h.Audit.VerificationCodeSent(ctx, r, user.ID, "email")
	return nil
}

// newDigitCode returns a random n-digit numeric code.
func newDigitCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", d.Int64())
	}
	return b.String(), nil
}
