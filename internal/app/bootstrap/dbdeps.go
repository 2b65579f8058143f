// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/bsankara/koasa/internal/app/system/swcache"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps bundles the backends ConnectDB establishes and the rest of the
// app consumes. WAFFLE threads one value of this type through the
// EnsureSchema, Startup, BuildHandler, and Shutdown hooks.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// AssetPolicy backs the /cdn proxy and shares its precache manifest
	// with the generated service worker.
	AssetPolicy *swcache.Policy
}
