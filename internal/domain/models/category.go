// internal/domain/models/category.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups products on the storefront (beef, poultry, fish, ...).
// Icon is a FontAwesome class rendered next to the name.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description"`
	Icon        string             `bson:"icon,omitempty" json:"icon"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// DefaultCategoryIcon is used when a category has no icon set.
const DefaultCategoryIcon = "fas fa-cube"
