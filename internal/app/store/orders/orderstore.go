// internal/app/store/orders/orderstore.go
package orderstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bsankara/koasa/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("orders")}
}

var (
	// ErrBadStatus is returned for a status outside the order lifecycle.
	ErrBadStatus = errors.New("invalid order status")

	// ErrNotFound is returned when no order matches.
	ErrNotFound = errors.New("order not found")
)

// Create inserts a new order. The caller assigns OrderNumber and
// WhatsAppOrderID (models.NewOrderNumber / models.NewWhatsAppOrderID).
func (s *Store) Create(ctx context.Context, o models.Order) (models.Order, error) {
	o.ID = primitive.NewObjectID()
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	if !models.IsValidOrderStatus(o.Status) {
		return models.Order{}, ErrBadStatus
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// GetByID loads an order by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns a customer's orders, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Filter narrows ListAll results.
type Filter struct {
	Status string // empty means all statuses
	Skip   int64  // rows to skip, for the paged admin list
	Limit  int64  // 0 means no limit
}

// ListAll returns orders for the admin view, newest first.
func (s *Store) ListAll(ctx context.Context, f Filter) ([]models.Order, error) {
	filter := bson.M{}
	if f.Status != "" {
		if !models.IsValidOrderStatus(f.Status) {
			return nil, ErrBadStatus
		}
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order through its lifecycle. Confirming stamps
// admin_confirmed_at.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.IsValidOrderStatus(status) {
		return ErrBadStatus
	}

	now := time.Now().UTC()
	set := bson.M{"status": status, "updated_at": now}
	if status == models.OrderConfirmed {
		set["admin_confirmed_at"] = now
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus tallies orders per status for the admin dashboard.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.N
	}
	return counts, cur.Err()
}
