// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs when the server is stopping. Workers are stopped before
// the Mongo client disconnects so an in-flight sweep never hits a
// closed connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if cleanupWorker != nil {
		cleanupWorker.Stop()
	}

	if deps.MongoClient != nil {
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
			return err
		}
	}

	logger.Info("shutdown complete")
	return nil
}
