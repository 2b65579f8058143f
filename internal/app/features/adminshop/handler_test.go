package adminshop_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/features/adminshop"
	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/domain/models"
	"github.com/bsankara/koasa/internal/testutil"
)

func newHandler(t *testing.T, db *mongo.Database) *adminshop.Handler {
	t.Helper()
	logger := zap.NewNop()
	return adminshop.NewHandler(db, nil, uierrors.NewErrorLogger(logger), nil, logger)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeAPI(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCreateProduct_AsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	h := newHandler(t, db)

	body := fmt.Sprintf(`{"name":"Côte de bœuf","price":6500,"unit":"kg","category_id":%q,"stock":10,"is_available":true}`,
		cat.ID.Hex())
	req := testutil.WithUser(httptest.NewRequest("POST", "/api/admin/products",
		strings.NewReader(body)), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rec.Code, rec.Body.String())
	}

	saved, err := productstore.New(db).GetByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("load created product: %v", err)
	}
	if saved.Name != "Côte de bœuf" || saved.Price != 6500 {
		t.Errorf("saved product: %+v", saved)
	}
}

func TestCreateProduct_ForbiddenForCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	req := testutil.WithUser(httptest.NewRequest("POST", "/api/admin/products",
		strings.NewReader(`{"name":"X","price":1,"category_id":"000000000000000000000000"}`)),
		testutil.CustomerUser())
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	body := `{"name":"Côte de bœuf","price":6500,"category_id":"656565656565656565656565"}`
	req := testutil.WithUser(httptest.NewRequest("POST", "/api/admin/products",
		strings.NewReader(body)), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestDeleteCategory_RefusedWhileInUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	h := newHandler(t, db)

	req := testutil.WithUser(httptest.NewRequest("DELETE", "/api/admin/categories/"+cat.ID.Hex(), nil),
		testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", cat.ID.Hex())
	rec := httptest.NewRecorder()
	h.DeleteCategory(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}

	// Still there.
	if _, err := categorystore.New(db).GetByID(ctx, cat.ID); err != nil {
		t.Errorf("category must survive a refused delete: %v", err)
	}
}

func TestDeleteCategory_EmptyCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Divers")
	h := newHandler(t, db)

	req := testutil.WithUser(httptest.NewRequest("DELETE", "/api/admin/categories/"+cat.ID.Hex(), nil),
		testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", cat.ID.Hex())
	rec := httptest.NewRecorder()
	h.DeleteCategory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	p := fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")
	order := fx.CreateOrder(ctx, user, p, 2)

	h := newHandler(t, db)

	req := testutil.WithUser(httptest.NewRequest("POST",
		"/api/admin/orders/"+order.ID.Hex()+"/status",
		strings.NewReader(`{"status":"confirmed"}`)), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", order.ID.Hex())
	rec := httptest.NewRecorder()
	h.UpdateOrderStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	updated, err := orderstore.New(db).GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if updated.Status != models.OrderConfirmed {
		t.Errorf("status: got %q, want confirmed", updated.Status)
	}
	if updated.AdminConfirmedAt == nil {
		t.Error("confirming must stamp admin_confirmed_at")
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	p := fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	user := fx.CreateUser(ctx, "awa@example.bf", "+22670000001")
	order := fx.CreateOrder(ctx, user, p, 1)

	h := newHandler(t, db)

	req := testutil.WithUser(httptest.NewRequest("POST",
		"/api/admin/orders/"+order.ID.Hex()+"/status",
		strings.NewReader(`{"status":"shipped"}`)), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", order.ID.Hex())
	rec := httptest.NewRecorder()
	h.UpdateOrderStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}

	resp := decodeAPI(t, rec)
	if resp.Success {
		t.Error("expected success=false")
	}
}
