// internal/testutil/http.go
package testutil

import (
	"net/http"
	"net/http/httptest"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bsankara/koasa/internal/app/system/auth"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID               string
	Name             string
	Email            string
	Role             string
	WhatsAppVerified bool
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:               primitive.NewObjectID().Hex(),
		Name:             "Test Admin",
		Email:            "admin@test.com",
		Role:             "admin",
		WhatsAppVerified: true,
	}
}

// CustomerUser returns a verified TestUser with customer role.
func CustomerUser() TestUser {
	return TestUser{
		ID:               primitive.NewObjectID().Hex(),
		Name:             "Test Customer",
		Email:            "customer@test.com",
		Role:             "customer",
		WhatsAppVerified: true,
	}
}

// UnverifiedCustomer returns a customer who has not completed WhatsApp
// verification, for exercising the order gate.
func UnverifiedCustomer() TestUser {
	u := CustomerUser()
	u.WhatsAppVerified = false
	return u
}

// WithUser adds a user to the request context for testing authenticated
// handlers, bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             user.Role,
		WhatsAppVerified: user.WhatsAppVerified,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
