// internal/domain/models/order.go
package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. New orders start pending; the admin confirms them after
// receiving the WhatsApp message, then moves them through delivery.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderDelivering = "delivering"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	OrderPending, OrderConfirmed, OrderDelivering, OrderDelivered, OrderCancelled,
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order. ProductName and UnitPrice are copied
// from the product at order time so later catalog edits don't rewrite
// history.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"product_id" json:"product_id"`
	ProductName string             `bson:"product_name" json:"product_name"`
	Quantity    float64            `bson:"quantity" json:"quantity"`
	Unit        string             `bson:"unit" json:"unit"`
	UnitPrice   float64            `bson:"unit_price" json:"unit_price"`
	Subtotal    float64            `bson:"subtotal" json:"subtotal"`
}

// Order is a submitted order. OrderNumber is the internal reference;
// WhatsAppOrderID is the short id quoted in the WhatsApp message and shown
// to the customer.
type Order struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	// Customer contact, copied from the account at order time. The WhatsApp
	// recap quotes these even if the profile changes later.
	CustomerName  string `bson:"customer_name" json:"customer_name"`
	CustomerPhone string `bson:"customer_phone" json:"customer_phone"`
	CustomerEmail string `bson:"customer_email" json:"customer_email"`

	OrderNumber      string             `bson:"order_number" json:"order_number"`
	WhatsAppOrderID  string             `bson:"whatsapp_order_id" json:"whatsapp_order_id"`
	Items            []OrderItem        `bson:"items" json:"items"`
	TotalAmount      float64            `bson:"total_amount" json:"total_amount"`
	Status           string             `bson:"status" json:"status"`
	DeliveryAddress  string             `bson:"delivery_address,omitempty" json:"delivery_address"`
	Notes            string             `bson:"notes,omitempty" json:"notes"`
	AdminConfirmedAt *time.Time         `bson:"admin_confirmed_at,omitempty" json:"admin_confirmed_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewOrderNumber returns an internal order reference like
// KO-20240131154502-A1B2C3.
func NewOrderNumber(now time.Time) string {
	return "KO-" + now.UTC().Format("20060102150405") + "-" + randomHex(3)
}

// NewWhatsAppOrderID returns the short id quoted in WhatsApp messages,
// like CMD-240131-A1B2C3.
func NewWhatsAppOrderID(now time.Time) string {
	return "CMD-" + now.UTC().Format("060102") + "-" + randomHex(3)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform source is broken;
		// a zero suffix is still a usable (if non-unique) reference.
		return strings.Repeat("0", n*2)
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
