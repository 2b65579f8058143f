// internal/app/store/products/productstore.go
package productstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	counterstore "github.com/bsankara/koasa/internal/app/store/counters"
	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/domain/models"
)

type Store struct {
	c        *mongo.Collection
	counters *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("products"), counters: counterstore.New(db)}
}

// ErrDuplicateName is returned when a product with the same folded name exists.
var ErrDuplicateName = errors.New("a product with this name already exists")

// GetByID loads a product by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByNumber loads a product by its sequential number, the id the
// storefront and the cart use.
func (s *Store) GetByNumber(ctx context.Context, number int64) (*models.Product, error) {
	var p models.Product
	if err := s.c.FindOne(ctx, bson.M{"number": number}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Filter narrows List results.
type Filter struct {
	Search        string             // folded substring match on the name
	CategoryID    primitive.ObjectID // zero value means all categories
	AvailableOnly bool
}

// List returns products matching the filter, sorted by name.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Product, error) {
	filter := bson.M{}
	if f.AvailableOnly {
		filter["is_available"] = true
	}
	if !f.CategoryID.IsZero() {
		filter["category_id"] = f.CategoryID
	}
	if q := text.Fold(f.Search); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Create inserts a new product, assigning the next sequence number.
func (s *Store) Create(ctx context.Context, p models.Product) (models.Product, error) {
	number, err := s.counters.Next(ctx, counterstore.ProductSequence)
	if err != nil {
		return models.Product{}, err
	}

	p.ID = primitive.NewObjectID()
	p.Number = number
	p.Name = normalize.Name(p.Name)
	p.NameCI = text.Fold(p.Name)
	if p.Unit == "" {
		p.Unit = models.DefaultUnit
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Product{}, ErrDuplicateName
		}
		return models.Product{}, err
	}
	return p, nil
}

// Update applies an admin edit. Number, timestamps and _id are preserved.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.Product) error {
	name := normalize.Name(p.Name)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"name":         name,
			"name_ci":      text.Fold(name),
			"description":  p.Description,
			"price":        p.Price,
			"unit":         p.Unit,
			"category_id":  p.CategoryID,
			"image_url":    p.ImageURL,
			"stock":        p.Stock,
			"is_available": p.IsAvailable,
			"updated_at":   time.Now().UTC(),
		},
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// SetAvailability toggles whether a product can be ordered.
func (s *Store) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_available": available, "updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountByCategory reports how many products reference a category, used to
// block deleting a category that is still in use.
func (s *Store) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

// Count returns the total number of products, used for startup seeding.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
