package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docdexhq/docdex/domain/document"
	"github.com/docdexhq/docdex/internal/database"
)

// ErrDocumentNotFound indicates the requested document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore implements document.Store on a relational database.
type DocumentStore struct {
	db database.Database
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db database.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save persists a new document and returns it with its assigned ID.
func (s *DocumentStore) Save(ctx context.Context, d document.Document) (document.Document, error) {
	model := documentToModel(d)
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return document.Document{}, fmt.Errorf("save document: %w", err)
	}
	return documentFromModel(model), nil
}

// ByID retrieves a document by its identifier.
func (s *DocumentStore) ByID(ctx context.Context, id int64) (document.Document, error) {
	var model DocumentModel
	err := s.db.Session(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return document.Document{}, fmt.Errorf("%w: id %d", ErrDocumentNotFound, id)
		}
		return document.Document{}, fmt.Errorf("find document: %w", err)
	}
	return documentFromModel(model), nil
}

// ByCollection lists documents uploaded into a collection, newest first.
func (s *DocumentStore) ByCollection(ctx context.Context, collection string) ([]document.Document, error) {
	var models []DocumentModel
	err := s.db.Session(ctx).
		Where("collection = ?", collection).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]document.Document, len(models))
	for i, m := range models {
		docs[i] = documentFromModel(m)
	}
	return docs, nil
}

var _ document.Store = (*DocumentStore)(nil)
