package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/inkwell-books/sms-concierge/internal/infrastructure/database/entities"
)

// AutoMigrate creates or updates the concierge tables.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")

	err := db.WithContext(ctx).AutoMigrate(
		&entities.Customer{},
		&entities.Conversation{},
		&entities.Message{},
		&entities.RateLimitCounter{},
	)
	if err != nil {
		return err
	}

	log.Info().Msg("database migrations complete")
	return nil
}
