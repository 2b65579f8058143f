// internal/app/store/audit/auditstore.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories.
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
	CategoryOrder = "order"
)

// Event is one audit record. Details carries event-specific key/values.
type Event struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	Category      string              `bson:"category"`
	EventType     string              `bson:"event_type"`
	Success       bool                `bson:"success"`
	UserID        *primitive.ObjectID `bson:"user_id,omitempty"`
	ActorID       *primitive.ObjectID `bson:"actor_id,omitempty"`
	IP            string              `bson:"ip,omitempty"`
	FailureReason string              `bson:"failure_reason,omitempty"`
	Details       map[string]string   `bson:"details,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
}

// Store persists audit events.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Insert writes one event, stamping CreatedAt.
func (s *Store) Insert(ctx context.Context, event Event) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// ListRecent returns the newest events, optionally restricted to a category.
func (s *Store) ListRecent(ctx context.Context, category string, limit int64) ([]Event, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
