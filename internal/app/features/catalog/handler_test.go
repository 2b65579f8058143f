package catalog_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/features/catalog"
	uierrors "github.com/bsankara/koasa/internal/app/features/errors"
	"github.com/bsankara/koasa/internal/testutil"
)

func newTestHandler(t *testing.T) (*catalog.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := catalog.NewHandler(db, nil, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func TestServeProductJSON_Found(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fx.CreateCategory(ctx, "Bœuf")
	p := fx.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)

	req := testutil.NewRequest("GET", "/api/products/1")
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.ServeProductJSON(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Product struct {
			ProductID int64   `json:"product_id"`
			Name      string  `json:"name"`
			Price     float64 `json:"price"`
		} `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.Product.ProductID != p.Number {
		t.Errorf("product_id: got %d, want %d", body.Product.ProductID, p.Number)
	}
	if body.Product.Name != "Filet de bœuf" || body.Product.Price != 5000 {
		t.Errorf("product: %+v", body.Product)
	}
}

func TestServeProductJSON_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/api/products/9999")
	req = testutil.WithChiURLParam(req, "id", "9999")
	rec := httptest.NewRecorder()

	h.ServeProductJSON(rec, req)

	if rec.Code != 404 {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestServeProductJSON_BadID(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, id := range []string{"abc", "0", "-3"} {
		req := testutil.NewRequest("GET", "/api/products/"+id)
		req = testutil.WithChiURLParam(req, "id", id)
		rec := httptest.NewRecorder()

		h.ServeProductJSON(rec, req)

		if rec.Code != 400 {
			t.Errorf("id %q: status got %d, want 400", id, rec.Code)
		}
	}
}
