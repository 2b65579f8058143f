// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), validators are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("categories", categoriesSchema())
	ensure("products", productsSchema())
	ensure("orders", ordersSchema())

	// The counters collection needs no validator; just make sure it exists.
	ensure("counters", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "phone", "role"},
			"properties": bson.M{
				"email":             bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":          bson.M{"bsonType": "string"},
				"phone":             bson.M{"bsonType": "string", "minLength": 8},
				"role":              bson.M{"enum": bson.A{"customer", "admin"}},
				"email_verified":    bson.M{"bsonType": "bool"},
				"whatsapp_verified": bson.M{"bsonType": "bool"},
				"is_active":         bson.M{"bsonType": "bool"},
			},
		},
	}
}

func categoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":      bson.M{"bsonType": "string", "minLength": 1},
				"name_ci":   bson.M{"bsonType": "string", "minLength": 1},
				"is_active": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func productsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"number", "name", "price", "unit"},
			"properties": bson.M{
				"number":       bson.M{"bsonType": "long", "minimum": 1},
				"name":         bson.M{"bsonType": "string", "minLength": 1},
				"price":        bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
				"unit":         bson.M{"bsonType": "string", "minLength": 1},
				"stock":        bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"is_available": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func ordersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "order_number", "status", "items"},
			"properties": bson.M{
				"order_number":      bson.M{"bsonType": "string", "minLength": 1},
				"whatsapp_order_id": bson.M{"bsonType": "string"},
				"status":            bson.M{"enum": bson.A{"pending", "confirmed", "delivering", "delivered", "cancelled"}},
				"total_amount":      bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
				"items": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"product_name", "quantity", "unit_price"},
						"properties": bson.M{
							"product_name": bson.M{"bsonType": "string", "minLength": 1},
							"quantity":     bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
							"unit_price":   bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
						},
					},
				},
			},
		},
	}
}
