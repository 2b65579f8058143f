// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user account can hold.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a customer or admin account.
//
// Email and Phone are unique (enforced by indexes in bootstrap.EnsureSchema).
// EmailCI holds the folded email for case-insensitive lookup.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	// Email verification (6-digit code, short expiry).
	EmailVerified    bool       `bson:"email_verified" json:"email_verified"`
	EmailVerifyCode  string     `bson:"email_verify_code,omitempty" json:"-"`
	EmailCodeExpires *time.Time `bson:"email_code_expires,omitempty" json:"-"`

	// WhatsApp verification. ActivationToken is handed to the customer in a
	// wa.me link; OTPCode is the 6-digit code they send back.
	ActivationToken  string     `bson:"activation_token,omitempty" json:"-"`
	WhatsAppVerified bool       `bson:"whatsapp_verified" json:"whatsapp_verified"`
	OTPCode          string     `bson:"otp_code,omitempty" json:"-"`
	OTPCreatedAt     *time.Time `bson:"otp_created_at,omitempty" json:"-"`

	IsActive bool   `bson:"is_active" json:"is_active"`
	Role     string `bson:"role" json:"role"` // customer | admin

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns the display name for messages and templates.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// OTPValidFor is how long a WhatsApp OTP code stays usable.
const OTPValidFor = 10 * time.Minute

// EmailCodeValidFor is how long an email verification code stays usable.
const EmailCodeValidFor = 5 * time.Minute
