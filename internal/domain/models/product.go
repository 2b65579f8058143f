// internal/domain/models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is one item sold on the storefront. Price is in FCFA per Unit
// (kg, piece, ...). Unavailable products stay visible in admin listings but
// cannot be added to a cart or ordered.
type Product struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Number is the small sequential id the storefront and the cart key on.
	// It is assigned from the counters collection on insert.
	Number int64 `bson:"number" json:"product_id"`

	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Unit        string             `bson:"unit" json:"unit"`
	CategoryID  primitive.ObjectID `bson:"category_id" json:"category_id"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url"`
	Stock       int                `bson:"stock" json:"stock"`
	IsAvailable bool               `bson:"is_available" json:"is_available"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// DefaultUnit is the unit assigned when none is given.
const DefaultUnit = "kg"
