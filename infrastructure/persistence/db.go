package persistence

import (
	"context"
	"fmt"

	"github.com/docdexhq/docdex/internal/database"
)

// Migrate creates or updates the database schema for all models.
func Migrate(ctx context.Context, db database.Database) error {
	if err := db.Session(ctx).AutoMigrate(&CollectionModel{}, &DocumentModel{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
