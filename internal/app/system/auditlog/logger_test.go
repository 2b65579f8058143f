package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/store/audit"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/testutil"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *auditlog.Logger
	// Must not panic.
	l.LoginSuccess(context.Background(), httptest.NewRequest("POST", "/login", nil),
		primitive.NewObjectID(), "a@b.co")
}

func TestLog_WritesToStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/login", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	l.LoginSuccess(ctx, r, userID, "awa@example.com")
	l.LoginFailed(ctx, r, "issa@example.com", "wrong_password")

	events, err := store.ListRecent(ctx, audit.CategoryAuth, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.IP != "203.0.113.9" {
			t.Errorf("client IP not captured: %q", e.IP)
		}
	}
}

func TestLog_OffDropsEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil),
		primitive.NewObjectID(), "awa@example.com")

	events, err := store.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 when off", len(events))
	}
}

func TestLog_OrderEventsUseAdminSetting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "db"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l.OrderSubmitted(ctx, httptest.NewRequest("POST", "/api/send-order-whatsapp", nil),
		primitive.NewObjectID(), "CMD-240131-A1B2C3", "11500")

	events, err := store.ListRecent(ctx, audit.CategoryOrder, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d order events, want 1", len(events))
	}
	if events[0].Details["order_id"] != "CMD-240131-A1B2C3" {
		t.Errorf("details: %v", events[0].Details)
	}
}
