// internal/app/system/auth/auth.go

// Package auth manages cookie sessions: the signed-in user and the
// session-scoped cart bucket.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/system/cart"
	"github.com/bsankara/koasa/internal/domain/models"
)

const (
	isAuthKey     = "is_authenticated"
	userIDKey     = "user_id"
	userNameKey   = "user_name"
	userEmailKey  = "user_email"
	userRoleKey   = "user_role"
	whatsAppOKKey = "whatsapp_verified"
)

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	ID               string
	Name             string
	Email            string
	Role             string
	WhatsAppVerified bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from context and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager wraps the cookie store. One instance is created at startup
// and shared by all features.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a SessionManager around a signed cookie store.
// The secure flag controls Secure cookies and the SameSite mode; production
// runs with secure=true.
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	// Lax in every mode: no flow here needs the cookie on a cross-site
	// request, and it keeps cross-site POSTs to the JSON API cookieless.
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

func (m *SessionManager) session(r *http.Request) *sessions.Session {
	// Get never returns a nil session; decoding errors fall back to a new one.
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			// Stale or tampered cookie, e.g. after a session key rotation.
			// The fresh session replaces it on the next Save.
			m.log.Debug("session cookie failed to decode, starting fresh", zap.Error(err))
		} else {
			m.log.Warn("session load error", zap.Error(err))
		}
	}
	return sess
}

// SignIn records the user in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *models.User) error {
	sess := m.session(r)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID.Hex()
	sess.Values[userNameKey] = u.FullName()
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = u.Role
	sess.Values[whatsAppOKKey] = u.WhatsAppVerified
	return sess.Save(r, w)
}

// SignOut clears the whole session, cart included.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r)
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// MarkWhatsAppVerified flips the verified flag in an existing session,
// used right after a successful OTP check.
func (m *SessionManager) MarkWhatsAppVerified(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r)
	sess.Values[whatsAppOKKey] = true
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Cart bucket                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Cart decodes the session cart. A missing or corrupted value yields an
// empty cart; stored state never fails a request.
func (m *SessionManager) Cart(r *http.Request) *cart.Cart {
	sess := m.session(r)
	raw, _ := sess.Values[cart.SessionKey].(string)
	return cart.Decode([]byte(raw))
}

// SaveCart writes the serialized cart back into the session cookie. Every
// mutating cart handler calls this before responding, so a reload within
// the same browser session reconstructs the exact prior state.
func (m *SessionManager) SaveCart(w http.ResponseWriter, r *http.Request, c *cart.Cart) error {
	sess := m.session(r)
	sess.Values[cart.SessionKey] = string(c.Encode())
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the user into context if they are logged in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.session(r)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameKey),
				Email: getString(sess, userEmailKey),
				Role:  getString(sess, userRoleKey),
			}
			u.WhatsAppVerified, _ = sess.Values[whatsAppOKKey].(bool)
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// HTML callers are redirected to /login with a return param; API callers get
// a plain 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+url.QueryEscape(currentURI(r)), http.StatusSeeOther)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// RequireRole ensures the user in context holds one of the allowed roles.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				if wantsHTML(r) {
					http.Redirect(w, r, "/login?return="+url.QueryEscape(currentURI(r)), http.StatusSeeOther)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects a user into the request context, bypassing the
// session cookie. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
