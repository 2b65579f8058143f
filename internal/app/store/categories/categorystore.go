// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bsankara/koasa/internal/app/system/normalize"
	"github.com/bsankara/koasa/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// ErrDuplicateName is returned when a category with the same folded name exists.
var ErrDuplicateName = errors.New("a category with this name already exists")

// GetByID loads a category by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var cat models.Category
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetByName loads a category by case-insensitive name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	filter := bson.M{"name_ci": text.Fold(normalize.Name(name))}
	if err := s.c.FindOne(ctx, filter).Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// List returns categories sorted by name. With activeOnly, hidden categories
// are excluded.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cats []models.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Create inserts a new category.
func (s *Store) Create(ctx context.Context, cat models.Category) (models.Category, error) {
	cat.ID = primitive.NewObjectID()
	cat.Name = normalize.Name(cat.Name)
	cat.NameCI = text.Fold(cat.Name)
	if cat.Icon == "" {
		cat.Icon = models.DefaultCategoryIcon
	}
	cat.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, cat); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateName
		}
		return models.Category{}, err
	}
	return cat, nil
}

// Update renames or re-describes a category.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, cat models.Category) error {
	name := normalize.Name(cat.Name)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"name":        name,
			"name_ci":     text.Fold(name),
			"description": cat.Description,
			"icon":        cat.Icon,
			"is_active":   cat.IsActive,
		},
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// Delete removes a category. Callers must first check no product references it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Count returns the number of categories, used for startup seeding.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
