package gates_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/gates"
)

// Helper to create a request with user context
func withTestUser(r *http.Request, role string, waVerified bool) *http.Request {
	user := &auth.SessionUser{
		ID:               "507f1f77bcf86cd799439011", // Valid ObjectID hex
		Name:             "Awa Traoré",
		Email:            "awa@example.bf",
		Role:             role,
		WhatsAppVerified: waVerified,
	}
	return auth.WithTestUser(r, user)
}

// Test RequireAuth

func TestRequireAuth_Authenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/mes-commandes", nil)
	req = withTestUser(req, "customer", true)
	rec := httptest.NewRecorder()

	result := gates.RequireAuth(rec, req, "/login")

	if !result.OK {
		t.Error("expected OK to be true for authenticated user")
	}
	if result.Role != "customer" {
		t.Errorf("Role: got %q, want %q", result.Role, "customer")
	}
	if result.Name != "Awa Traoré" {
		t.Errorf("Name: got %q, want %q", result.Name, "Awa Traoré")
	}
	if result.UserID.IsZero() {
		t.Error("expected UserID to be set")
	}
}

func TestRequireAuth_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/mes-commandes", nil)
	rec := httptest.NewRecorder()

	result := gates.RequireAuth(rec, req, "/login")

	if result.OK {
		t.Error("expected OK to be false for unauthenticated user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// Test RequireAdmin

func TestRequireAdmin_AsAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/produits", nil)
	req = withTestUser(req, "admin", true)
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req, "Réservé aux administrateurs", "/")

	if !result.OK {
		t.Error("expected OK to be true for admin user")
	}
	if result.Role != "admin" {
		t.Errorf("Role: got %q, want %q", result.Role, "admin")
	}
}

func TestRequireAdmin_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/produits", nil)
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req, "Réservé aux administrateurs", "/")

	if result.OK {
		t.Error("expected OK to be false for unauthenticated user")
	}
}

func TestRequireAdmin_AsCustomer(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/produits", nil)
	req = withTestUser(req, "customer", true)
	rec := httptest.NewRecorder()

	result := gates.RequireAdmin(rec, req, "Réservé aux administrateurs", "/")

	if result.OK {
		t.Error("expected OK to be false for customer user")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
