// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicate is returned when the email or phone is already taken.
	ErrDuplicate = errors.New("email or phone already registered")

	// ErrCodeInvalid is returned when a verification code does not match
	// or has expired.
	ErrCodeInvalid = errors.New("verification code invalid or expired")

	errBadRole = errors.New(`role must be "customer"|"admin"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByPhone looks up a user by normalized phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"phone": normalize.Phone(phone)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByActivationToken looks up a user by the WhatsApp activation token.
func (s *Store) GetByActivationToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"activation_token": token}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. The caller supplies
// the password hash and any verification codes.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.Phone = normalize.Phone(u.Phone)

	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	switch u.Role {
	case models.RoleCustomer, models.RoleAdmin:
	default:
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// SetEmailVerifyCode stores a fresh email verification code with its expiry.
func (s *Store) SetEmailVerifyCode(ctx context.Context, id primitive.ObjectID, code string) error {
	expires := time.Now().UTC().Add(models.EmailCodeValidFor)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"email_verify_code":  code,
			"email_code_expires": expires,
			"updated_at":         time.Now().UTC(),
		},
	})
	return err
}

// VerifyEmailCode checks the submitted code against the stored one. On
// success the code is cleared and the email marked verified.
func (s *Store) VerifyEmailCode(ctx context.Context, id primitive.ObjectID, code string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                id,
			"email_verify_code":  code,
			"email_code_expires": bson.M{"$gt": now},
		},
		bson.M{
			"$set":   bson.M{"email_verified": true, "updated_at": now},
			"$unset": bson.M{"email_verify_code": "", "email_code_expires": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCodeInvalid
	}
	return nil
}

// SetOTP stores a fresh WhatsApp OTP code, stamped now.
func (s *Store) SetOTP(ctx context.Context, id primitive.ObjectID, code string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"otp_code":       code,
			"otp_created_at": now,
			"updated_at":     now,
		},
	})
	return err
}

// VerifyOTP checks the submitted OTP. On success the code is cleared and the
// account marked WhatsApp-verified and active.
func (s *Store) VerifyOTP(ctx context.Context, id primitive.ObjectID, code string) error {
	now := time.Now().UTC()
	oldest := now.Add(-models.OTPValidFor)
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":            id,
			"otp_code":       code,
			"otp_created_at": bson.M{"$gt": oldest},
		},
		bson.M{
			"$set":   bson.M{"whatsapp_verified": true, "is_active": true, "updated_at": now},
			"$unset": bson.M{"otp_code": "", "otp_created_at": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCodeInvalid
	}
	return nil
}

// SetActivationToken stores a new WhatsApp activation token.
func (s *Store) SetActivationToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"activation_token": token, "updated_at": time.Now().UTC()},
	})
	return err
}

// Activate marks the account holding token as active and WhatsApp-verified,
// consuming the token. Returns the activated user.
func (s *Store) Activate(ctx context.Context, token string) (*models.User, error) {
	u, err := s.GetByActivationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{
			"$set":   bson.M{"is_active": true, "whatsapp_verified": true, "updated_at": now},
			"$unset": bson.M{"activation_token": ""},
		},
	)
	if err != nil {
		return nil, err
	}
	u.IsActive = true
	u.WhatsAppVerified = true
	u.ActivationToken = ""
	return u, nil
}

// ProfileUpdate holds the fields a customer can change on their account page.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
}

// UpdateProfile applies a profile edit.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"first_name": normalize.Name(upd.FirstName),
			"last_name":  normalize.Name(upd.LastName),
			"phone":      normalize.Phone(upd.Phone),
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicate
	}
	return err
}

// ResetWhatsAppVerification clears the verified flag after a phone number
// change. The customer keeps their session but must redo the WhatsApp step
// before ordering.
func (s *Store) ResetWhatsAppVerification(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"whatsapp_verified": false, "updated_at": time.Now().UTC()},
	})
	return err
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
	})
	return err
}

// ClearExpiredCodes drops verification codes past their window. Run
// periodically by the cleanup worker; expiry is also enforced at check time.
func (s *Store) ClearExpiredCodes(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	var total int64

	res, err := s.c.UpdateMany(ctx,
		bson.M{"email_code_expires": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"email_verify_code": "", "email_code_expires": ""}},
	)
	if err != nil {
		return total, err
	}
	total += res.ModifiedCount

	res, err = s.c.UpdateMany(ctx,
		bson.M{"otp_created_at": bson.M{"$lt": now.Add(-models.OTPValidFor)}},
		bson.M{"$unset": bson.M{"otp_code": "", "otp_created_at": ""}},
	)
	if err != nil {
		return total, err
	}
	total += res.ModifiedCount

	return total, nil
}

// EnsureAdmin creates or repairs the administrator account used to run the
// shop. Called at startup with credentials from config.
func (s *Store) EnsureAdmin(ctx context.Context, email, phone, passwordHash string) (*models.User, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin || !existing.IsActive {
			_, uerr := s.c.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{
				"$set": bson.M{"role": models.RoleAdmin, "is_active": true, "updated_at": time.Now().UTC()},
			})
			if uerr != nil {
				return nil, uerr
			}
			existing.Role = models.RoleAdmin
			existing.IsActive = true
		}
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := s.Create(ctx, models.User{
		FirstName:        "Admin",
		LastName:         "KOASA",
		Email:            email,
		Phone:            phone,
		PasswordHash:     passwordHash,
		EmailVerified:    true,
		WhatsAppVerified: true,
		IsActive:         true,
		Role:             models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
