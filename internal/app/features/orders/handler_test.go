package orders_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	"github.com/bsankara/koasa/internal/app/features/orders"
	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/cart"
	"github.com/bsankara/koasa/internal/domain/models"
	"github.com/bsankara/koasa/internal/testutil"
)

const adminPhone = "+22669628477"

func newHandler(t *testing.T, db *mongo.Database) *orders.Handler {
	t.Helper()
	logger := zap.NewNop()
	return orders.NewHandler(db, nil, uierrors.NewErrorLogger(logger), nil, logger, adminPhone)
}

func asUser(r *http.Request, u models.User, verified bool) *http.Request {
	return testutil.WithUser(r, testutil.TestUser{
		ID:               u.ID.Hex(),
		Name:             u.FullName(),
		Email:            u.Email,
		Role:             u.Role,
		WhatsAppVerified: verified,
	})
}

type submitResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
	OrderID     string `json:"order_id"`
}

func TestSubmitOrder_Unauthenticated(t *testing.T) {
	h := newHandler(t, nil)

	req := httptest.NewRequest("POST", "/api/send-order-whatsapp",
		strings.NewReader(`{"items":[{"product_id":1,"quantity":1}]}`))
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestSubmitOrder_RequiresWhatsAppVerification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")
	h := newHandler(t, db)

	req := httptest.NewRequest("POST", "/api/send-order-whatsapp",
		strings.NewReader(`{"items":[{"product_id":1,"quantity":1}]}`))
	req = asUser(req, user, false)
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestSubmitOrder_EmptyCart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")
	h := newHandler(t, db)

	req := httptest.NewRequest("POST", "/api/send-order-whatsapp",
		strings.NewReader(`{"items":[]}`))
	req = asUser(req, user, true)
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestSubmitOrder_PersistsAndBuildsLink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")

	h := newHandler(t, db)

	// The client-sent price of 1 FCFA must be ignored; the stored catalog
	// price wins. The second line references an unknown product and is
	// skipped.
	body := `{"items":[
		{"product_id":1,"name":"Filet de bœuf","quantity":2,"price":1,"unit":"kg"},
		{"product_id":99,"name":"Fantôme","quantity":1,"price":1000,"unit":"kg"}],
		"total":2,"delivery_address":"<b>Zone du Bois</b>, rue 12.34","notes":"Découpe fine"}`

	req := httptest.NewRequest("POST", "/api/send-order-whatsapp", strings.NewReader(body))
	req = asUser(req, user, true)
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var resp submitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success: %+v", resp)
	}
	if !strings.HasPrefix(resp.OrderID, "CMD-") {
		t.Errorf("order_id: got %q, want CMD- prefix", resp.OrderID)
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/22669628477?text=") {
		t.Errorf("whatsapp_url: got %q", resp.WhatsAppURL)
	}

	saved, err := orderstore.New(db).ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("got %d orders, want 1", len(saved))
	}
	o := saved[0]
	if len(o.Items) != 1 {
		t.Fatalf("got %d lines, want 1 (unknown product must be skipped)", len(o.Items))
	}
	if o.Items[0].UnitPrice != 5000 || o.Items[0].Subtotal != 10000 || o.TotalAmount != 10000 {
		t.Errorf("server-side pricing: %+v", o.Items[0])
	}
	if o.Status != models.OrderPending {
		t.Errorf("status: got %q, want pending", o.Status)
	}
	if o.CustomerPhone != "+22670000001" || o.CustomerEmail != "awa@example.bf" {
		t.Errorf("customer snapshot: %+v", o)
	}
	if strings.Contains(o.DeliveryAddress, "<b>") {
		t.Errorf("address must be sanitized: %q", o.DeliveryAddress)
	}
	if !strings.Contains(o.DeliveryAddress, "Zone du Bois") {
		t.Errorf("address content lost: %q", o.DeliveryAddress)
	}
}

func TestSubmitOrder_EmptiesSessionCart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")

	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "koasa_session", "", false, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	h := orders.NewHandler(db, sm, uierrors.NewErrorLogger(logger), nil, logger, adminPhone)

	// Put a line in the session cart first.
	c := cart.New()
	c.Add(1, "Filet de bœuf", 5000, "kg")
	seedRec := httptest.NewRecorder()
	if err := sm.SaveCart(seedRec, httptest.NewRequest("GET", "/cart", nil), c); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	cookies := seedRec.Result().Cookies()

	body := `{"items":[{"product_id":1,"name":"Filet de bœuf","quantity":1,"price":5000,"unit":"kg"}]}`
	req := httptest.NewRequest("POST", "/api/send-order-whatsapp", strings.NewReader(body))
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	req = asUser(req, user, true)
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	// The response must rewrite the session with an empty cart.
	after := httptest.NewRequest("GET", "/cart", nil)
	for _, ck := range rec.Result().Cookies() {
		after.AddCookie(ck)
	}
	if got := sm.Cart(after); !got.IsEmpty() {
		t.Errorf("session cart after order: %d lines, want 0", got.Len())
	}
}

func TestSubmitOrder_AllLinesInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")
	h := newHandler(t, db)

	body := `{"items":[
		{"product_id":99,"quantity":1},
		{"product_id":1,"quantity":-2}]}`

	req := httptest.NewRequest("POST", "/api/send-order-whatsapp", strings.NewReader(body))
	req = asUser(req, user, true)
	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}

	saved, err := orderstore.New(db).ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("nothing must be persisted, got %d orders", len(saved))
	}
}
