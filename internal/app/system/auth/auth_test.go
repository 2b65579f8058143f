package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/cart"
)

const testKey = "test-session-key-for-testing-only!!"

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	m, err := auth.NewSessionManager(testKey, "koasa-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return m
}

func TestSessionCookie_SameSiteLaxInProduction(t *testing.T) {
	m, err := auth.NewSessionManager(testKey, "koasa-session", "", true, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := m.SaveCart(rec, httptest.NewRequest("GET", "/", nil), cart.New()); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}

	// A SameSite=None cookie would ride along on cross-site POSTs to the
	// JSON API, which carries no CSRF token.
	header := rec.Header().Get("Set-Cookie")
	if !strings.Contains(header, "SameSite=Lax") {
		t.Errorf("cookie must be SameSite=Lax, got %q", header)
	}
	if !strings.Contains(header, "Secure") {
		t.Errorf("production cookie must be Secure, got %q", header)
	}
}

func TestNewSessionManager_EmptyKeyFails(t *testing.T) {
	if _, err := auth.NewSessionManager("", "koasa-session", "", false, zap.NewNop()); err == nil {
		t.Fatal("empty session key should be rejected")
	}
}

// replay builds a fresh request carrying the cookies written to rec,
// simulating the browser's next request in the same session.
func replay(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSaveCart_ReloadReconstructsState(t *testing.T) {
	m := newManager(t)

	c := cart.New()
	c.Add(1, "Filet de bœuf", 5000, "kg")
	c.SetQuantity(1, 2.5)

	rec := httptest.NewRecorder()
	if err := m.SaveCart(rec, httptest.NewRequest("POST", "/api/cart/items", nil), c); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}

	got := m.Cart(replay(rec, "GET", "/cart"))
	items := got.Items()
	if len(items) != 1 {
		t.Fatalf("reloaded cart: got %d lines, want 1", len(items))
	}
	if items[0].ProductID != 1 || items[0].Quantity != 2.5 {
		t.Errorf("reloaded item: %+v", items[0])
	}
	if got.Total() != 12500 {
		t.Errorf("Total: got %v, want 12500", got.Total())
	}
}

func TestCart_NoSessionYieldsEmptyCart(t *testing.T) {
	m := newManager(t)
	c := m.Cart(httptest.NewRequest("GET", "/", nil))
	if !c.IsEmpty() {
		t.Errorf("cart without session should be empty, has %d lines", c.Len())
	}
}

func TestSaveCart_ClearedCartPersistsEmpty(t *testing.T) {
	m := newManager(t)

	c := cart.New()
	c.Add(1, "Bœuf", 5000, "kg")
	rec := httptest.NewRecorder()
	if err := m.SaveCart(rec, httptest.NewRequest("POST", "/", nil), c); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}

	c2 := m.Cart(replay(rec, "GET", "/"))
	c2.Clear()
	rec2 := httptest.NewRecorder()
	if err := m.SaveCart(rec2, replay(rec, "POST", "/"), c2); err != nil {
		t.Fatalf("SaveCart after Clear failed: %v", err)
	}

	if got := m.Cart(replay(rec2, "GET", "/")); !got.IsEmpty() {
		t.Errorf("cleared cart should reload empty, has %d lines", got.Len())
	}
}

func TestLoadSessionUser_NoSession(t *testing.T) {
	m := newManager(t)

	var sawUser bool
	h := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = auth.CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if sawUser {
		t.Error("no user should be in context without a session")
	}
}

func TestRequireSignedIn_API401(t *testing.T) {
	m := newManager(t)
	h := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/send-order-whatsapp", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestRequireSignedIn_HTMLRedirectsToLogin(t *testing.T) {
	m := newManager(t)
	h := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?return=%2Fcart" {
		t.Errorf("redirect location: got %q", loc)
	}
}

func TestRequireRole(t *testing.T) {
	m := newManager(t)
	ran := false
	h := m.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))

	// Customer is rejected.
	req := auth.WithTestUser(httptest.NewRequest("GET", "/admin/api/products", nil),
		&auth.SessionUser{ID: "1", Role: "customer"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || ran {
		t.Errorf("customer: status %d ran=%v, want 403 and handler skipped", rec.Code, ran)
	}

	// Admin passes.
	req = auth.WithTestUser(httptest.NewRequest("GET", "/admin/api/products", nil),
		&auth.SessionUser{ID: "1", Role: "admin"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !ran {
		t.Errorf("admin: status %d ran=%v, want 200 and handler run", rec.Code, ran)
	}
}

func TestSignOut_DropsCartAndUser(t *testing.T) {
	m := newManager(t)

	c := cart.New()
	c.Add(1, "Bœuf", 5000, "kg")
	rec := httptest.NewRecorder()
	if err := m.SaveCart(rec, httptest.NewRequest("POST", "/", nil), c); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}

	rec2 := httptest.NewRecorder()
	if err := m.SignOut(rec2, replay(rec, "POST", "/logout")); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	if got := m.Cart(replay(rec2, "GET", "/")); !got.IsEmpty() {
		t.Errorf("cart should be gone after sign-out, has %d lines", got.Len())
	}
}
