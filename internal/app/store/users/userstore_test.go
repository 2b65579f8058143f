package userstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/domain/models"
	"github.com/bsankara/koasa/internal/testutil"
)

func TestCreateAndLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FirstName:    "  Awa ",
		LastName:     "Traoré",
		Email:        "Awa@Example.COM",
		Phone:        "+226 70 00 00 01",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "awa@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.Phone != "+22670000001" {
		t.Errorf("phone not normalized: %q", created.Phone)
	}
	if created.Role != models.RoleCustomer {
		t.Errorf("default role: got %q", created.Role)
	}

	byEmail, err := store.GetByEmail(ctx, "AWA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Error("GetByEmail returned a different user")
	}

	byPhone, err := store.GetByPhone(ctx, "+226 70-00-00-01")
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if byPhone.ID != created.ID {
		t.Error("GetByPhone returned a different user")
	}
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Email: "x@y.co", Role: "superuser"})
	if err == nil {
		t.Fatal("unknown role should be rejected")
	}
}

func TestEmailVerifyCode_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Email: "v@example.com", Phone: "70123456"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetEmailVerifyCode(ctx, u.ID, "482913"); err != nil {
		t.Fatalf("SetEmailVerifyCode failed: %v", err)
	}

	if err := store.VerifyEmailCode(ctx, u.ID, "000000"); err != userstore.ErrCodeInvalid {
		t.Errorf("wrong code: got %v, want ErrCodeInvalid", err)
	}

	if err := store.VerifyEmailCode(ctx, u.ID, "482913"); err != nil {
		t.Fatalf("VerifyEmailCode failed: %v", err)
	}

	// The code is single-use.
	if err := store.VerifyEmailCode(ctx, u.ID, "482913"); err != userstore.ErrCodeInvalid {
		t.Errorf("replayed code: got %v, want ErrCodeInvalid", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.EmailVerified {
		t.Error("email should be marked verified")
	}
}

func TestOTP_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Email: "otp@example.com", Phone: "70123457"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetOTP(ctx, u.ID, "123456"); err != nil {
		t.Fatalf("SetOTP failed: %v", err)
	}
	if err := store.VerifyOTP(ctx, u.ID, "654321"); err != userstore.ErrCodeInvalid {
		t.Errorf("wrong OTP: got %v, want ErrCodeInvalid", err)
	}
	if err := store.VerifyOTP(ctx, u.ID, "123456"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.WhatsAppVerified || !got.IsActive {
		t.Error("successful OTP should verify and activate the account")
	}
}

func TestActivate_ConsumesToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Email: "act@example.com", Phone: "70123458"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetActivationToken(ctx, u.ID, "tok-abc"); err != nil {
		t.Fatalf("SetActivationToken failed: %v", err)
	}

	activated, err := store.Activate(ctx, "tok-abc")
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !activated.IsActive || !activated.WhatsAppVerified {
		t.Error("activated account should be active and verified")
	}

	if _, err := store.Activate(ctx, "tok-abc"); err != mongo.ErrNoDocuments {
		t.Errorf("reused token: got %v, want ErrNoDocuments", err)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.EnsureAdmin(ctx, "admin@koasa.bf", "+22669628477", "hash")
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	if first.Role != models.RoleAdmin || !first.IsActive {
		t.Errorf("admin account wrong: %+v", first)
	}

	second, err := store.EnsureAdmin(ctx, "admin@koasa.bf", "+22669628477", "hash")
	if err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("EnsureAdmin must not create a second account")
	}
}
