package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/internal/database"
)

// CollectionStore implements collection.Registry on a relational database.
type CollectionStore struct {
	db database.Database
}

// NewCollectionStore creates a CollectionStore.
func NewCollectionStore(db database.Database) *CollectionStore {
	return &CollectionStore{db: db}
}

// Find retrieves a collection by name.
func (s *CollectionStore) Find(ctx context.Context, name string) (collection.Collection, error) {
	var model CollectionModel
	err := s.db.Session(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return collection.Collection{}, fmt.Errorf("%w: %s", collection.ErrNotFound, name)
		}
		return collection.Collection{}, fmt.Errorf("find collection: %w: %w", collection.ErrRegistryUnavailable, err)
	}
	return collectionFromModel(model), nil
}

// FindAll lists every registered collection ordered by name.
func (s *CollectionStore) FindAll(ctx context.Context) ([]collection.Collection, error) {
	var models []CollectionModel
	if err := s.db.Session(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list collections: %w: %w", collection.ErrRegistryUnavailable, err)
	}

	collections := make([]collection.Collection, len(models))
	for i, m := range models {
		collections[i] = collectionFromModel(m)
	}
	return collections, nil
}

// Insert registers a new collection. The primary-key constraint rejects
// duplicate names.
func (s *CollectionStore) Insert(ctx context.Context, c collection.Collection) (collection.Collection, error) {
	model := collectionToModel(c)
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return collection.Collection{}, fmt.Errorf("insert collection: %w", err)
	}
	return collectionFromModel(model), nil
}

// IncrementCount adds by to the chunk counter in a single UPDATE so
// concurrent ingestions never lose increments.
func (s *CollectionStore) IncrementCount(ctx context.Context, name string, by int) error {
	result := s.db.Session(ctx).
		Model(&CollectionModel{}).
		Where("name = ?", name).
		UpdateColumn("docs_count", gorm.Expr("docs_count + ?", by))
	if result.Error != nil {
		return fmt.Errorf("increment docs count: %w: %w", collection.ErrRegistryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", collection.ErrNotFound, name)
	}
	return nil
}

// SetCount overwrites the chunk counter.
func (s *CollectionStore) SetCount(ctx context.Context, name string, value int64) error {
	result := s.db.Session(ctx).
		Model(&CollectionModel{}).
		Where("name = ?", name).
		UpdateColumn("docs_count", value)
	if result.Error != nil {
		return fmt.Errorf("set docs count: %w: %w", collection.ErrRegistryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", collection.ErrNotFound, name)
	}
	return nil
}

// Delete removes the collection's registry entry.
func (s *CollectionStore) Delete(ctx context.Context, name string) error {
	result := s.db.Session(ctx).Where("name = ?", name).Delete(&CollectionModel{})
	if result.Error != nil {
		return fmt.Errorf("delete collection: %w: %w", collection.ErrRegistryUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", collection.ErrNotFound, name)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *CollectionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

var _ collection.Registry = (*CollectionStore)(nil)
