// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/features/assets"
	"github.com/bsankara/koasa/internal/app/system/indexes"
	"github.com/bsankara/koasa/internal/app/system/swcache"
	"github.com/bsankara/koasa/internal/app/system/validators"
)

// ConnectDB establishes the MongoDB connection and builds the asset
// caching policy for the /cdn proxy.
//
// The connection is verified with a ping against the primary so a bad
// URI or an unreachable server fails startup instead of the first
// request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo connected",
		zap.String("database", appCfg.MongoDatabase))

	policy := &swcache.Policy{
		StaticCache:  "koasa-" + appCfg.CacheVersion,
		RuntimeCache: "koasa-runtime",
		Precache:     assets.PrecacheURLs(),
		Storage:      swcache.NewMemoryStorage(),
		Fetch:        swcache.HTTPFetcher(http.DefaultClient),
		Log:          logger,
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		AssetPolicy:   policy,
	}, nil
}

// EnsureSchema applies collection validators and indexes. Both are
// idempotent, so restarting the app is safe.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("schema ensured")
	return nil
}
