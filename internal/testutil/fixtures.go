// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bsankara/koasa/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that read chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T

	productSeq int64
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCategory inserts a test category.
func (f *Fixtures) CreateCategory(ctx context.Context, name string) models.Category {
	f.t.Helper()

	cat := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Icon:      models.DefaultCategoryIcon,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("categories").InsertOne(ctx, cat); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// CreateProduct inserts an available test product in the given category.
// Sequence numbers are assigned locally, starting at 1 per Fixtures.
func (f *Fixtures) CreateProduct(ctx context.Context, categoryID primitive.ObjectID, name string, price float64) models.Product {
	f.t.Helper()

	f.productSeq++
	now := time.Now().UTC()
	p := models.Product{
		ID:          primitive.NewObjectID(),
		Number:      f.productSeq,
		Name:        name,
		NameCI:      text.Fold(name),
		Price:       price,
		Unit:        models.DefaultUnit,
		CategoryID:  categoryID,
		Stock:       100,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("products").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test product: %v", err)
	}
	return p
}

// CreateUser inserts an active, fully verified customer account.
func (f *Fixtures) CreateUser(ctx context.Context, email, phone string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		FirstName:        "Awa",
		LastName:         "Traoré",
		Email:            email,
		EmailCI:          text.Fold(email),
		Phone:            phone,
		PasswordHash:     "x",
		EmailVerified:    true,
		WhatsAppVerified: true,
		IsActive:         true,
		Role:             models.RoleCustomer,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateOrder inserts a pending order for the given user with one line.
func (f *Fixtures) CreateOrder(ctx context.Context, user models.User, p models.Product, qty float64) models.Order {
	f.t.Helper()

	now := time.Now().UTC()
	o := models.Order{
		ID:              primitive.NewObjectID(),
		OrderNumber:     models.NewOrderNumber(now),
		WhatsAppOrderID: models.NewWhatsAppOrderID(now),
		UserID:          user.ID,
		CustomerName:    user.FullName(),
		CustomerPhone:   user.Phone,
		CustomerEmail:   user.Email,
		Items: []models.OrderItem{{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			Unit:        p.Unit,
			UnitPrice:   p.Price,
			Subtotal:    qty * p.Price,
		}},
		TotalAmount: qty * p.Price,
		Status:      models.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("orders").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test order: %v", err)
	}
	return o
}
