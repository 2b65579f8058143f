package orderstore_test

import (
	"strings"
	"testing"
	"time"

	orderstore "github.com/bsankara/koasa/internal/app/store/orders"
	"github.com/bsankara/koasa/internal/domain/models"
	"github.com/bsankara/koasa/internal/testutil"
)

func TestCreateAndListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := orderstore.New(db)
	fix := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fix.CreateUser(ctx, "awa@example.com", "+22670000001")
	other := fix.CreateUser(ctx, "issa@example.com", "+22670000002")
	cat := fix.CreateCategory(ctx, "Bœuf")
	product := fix.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)

	fix.CreateOrder(ctx, user, product, 2)
	fix.CreateOrder(ctx, user, product, 0.5)
	fix.CreateOrder(ctx, other, product, 1)

	mine, err := store.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d orders, want 2", len(mine))
	}
	for _, o := range mine {
		if o.UserID != user.ID {
			t.Errorf("order %s belongs to %s", o.ID.Hex(), o.UserID.Hex())
		}
	}
}

func TestCreate_DefaultsAndIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := orderstore.New(db)
	fix := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fix.CreateUser(ctx, "awa@example.com", "+22670000001")

	o, err := store.Create(ctx, models.Order{
		UserID:          user.ID,
		OrderNumber:     models.NewOrderNumber(time.Now()),
		WhatsAppOrderID: models.NewWhatsAppOrderID(time.Now()),
		CustomerName:    user.FullName(),
		CustomerPhone:   user.Phone,
		TotalAmount:     5000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if o.Status != models.OrderPending {
		t.Errorf("default status: got %q", o.Status)
	}
	if !strings.HasPrefix(o.OrderNumber, "KO-") {
		t.Errorf("order number format: %q", o.OrderNumber)
	}
	if !strings.HasPrefix(o.WhatsAppOrderID, "CMD-") {
		t.Errorf("whatsapp order id format: %q", o.WhatsAppOrderID)
	}
}

func TestUpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := orderstore.New(db)
	fix := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fix.CreateUser(ctx, "awa@example.com", "+22670000001")
	cat := fix.CreateCategory(ctx, "Bœuf")
	product := fix.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)
	order := fix.CreateOrder(ctx, user, product, 1)

	if err := store.UpdateStatus(ctx, order.ID, "shipped"); err != orderstore.ErrBadStatus {
		t.Errorf("unknown status: got %v, want ErrBadStatus", err)
	}

	if err := store.UpdateStatus(ctx, order.ID, models.OrderConfirmed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := store.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.OrderConfirmed {
		t.Errorf("status: got %q", got.Status)
	}
	if got.AdminConfirmedAt == nil {
		t.Error("confirming should stamp admin_confirmed_at")
	}
}

func TestListAll_StatusFilterAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := orderstore.New(db)
	fix := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fix.CreateUser(ctx, "awa@example.com", "+22670000001")
	cat := fix.CreateCategory(ctx, "Bœuf")
	product := fix.CreateProduct(ctx, cat.ID, "Filet de bœuf", 5000)

	o1 := fix.CreateOrder(ctx, user, product, 1)
	fix.CreateOrder(ctx, user, product, 2)
	if err := store.UpdateStatus(ctx, o1.ID, models.OrderConfirmed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	pending, err := store.ListAll(ctx, orderstore.Filter{Status: models.OrderPending})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending: got %d, want 1", len(pending))
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[models.OrderPending] != 1 || counts[models.OrderConfirmed] != 1 {
		t.Errorf("counts: %v", counts)
	}
}
