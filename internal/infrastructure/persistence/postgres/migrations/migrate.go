package migrations

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/infrastructure/persistence/postgres/connection"
	"github.com/ewellner/daybridge/internal/storage/remotestore"
)

// AutoMigrate creates or updates the remote-store document tables.
func AutoMigrate(db *connection.Database, log *zap.Logger) error {
	models := remotestore.Models()

	log.Info("Running database migrations", zap.Int("models", len(models)))

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}
