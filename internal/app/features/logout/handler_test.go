package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/features/logout"
	"github.com/bsankara/koasa/internal/app/system/auth"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "koasa_session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return sm
}

func TestHandleLogout_RedirectsHome(t *testing.T) {
	sm := newSessionManager(t)
	h := logout.NewHandler(sm, nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/logout", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:   "507f1f77bcf86cd799439011",
		Name: "Awa Traoré",
		Role: "customer",
	})
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect: got %q, want /", loc)
	}
}

func TestHandleLogout_ExpiresSessionCookie(t *testing.T) {
	sm := newSessionManager(t)
	h := logout.NewHandler(sm, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest("POST", "/logout", nil))

	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "koasa_session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("logout must expire the session cookie")
	}
}
