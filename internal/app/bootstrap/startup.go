// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/bsankara/koasa/internal/app/store/users"
	"github.com/bsankara/koasa/internal/app/system/workers"
)

// cleanupWorker sweeps expired verification codes in the background. It
// is started here and stopped in Shutdown.
var cleanupWorker *workers.CodeCleanup

// Startup runs after the DB connection and schema are in place and
// before the HTTP handler is built. It seeds the catalog on first run,
// ensures the configured admin account, pre-populates the CDN asset
// cache, and starts background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := seedCatalog(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	users := userstore.New(deps.MongoDatabase)

	if appCfg.SuperAdminEmail != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.SuperAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash superadmin password: %w", err)
		}
		admin, err := users.EnsureAdmin(ctx, appCfg.SuperAdminEmail, appCfg.SuperAdminPhone, string(hash))
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		logger.Info("admin account ensured", zap.String("email", admin.Email))
	} else {
		logger.Warn("superadmin_email not set, no admin account ensured")
	}

	// A failed precache only means slower first hits on /cdn; the proxy
	// fills its runtime cache on demand.
	if err := deps.AssetPolicy.Install(ctx); err != nil {
		logger.Warn("asset precache failed", zap.Error(err))
	}
	deps.AssetPolicy.Activate()

	cleanupWorker = workers.NewCodeCleanup(users, logger, appCfg.CleanupInterval)
	cleanupWorker.Start()

	return nil
}
