package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chatcart/session-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies the backing store schema.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running backing store migrations")

	err := db.WithContext(ctx).AutoMigrate(
		&entities.ChatSession{},
		&entities.SessionMessage{},
		&entities.ArchivedMessage{},
		&entities.CustomerProfile{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	log.Info().Msg("backing store migrations complete")
	return nil
}
