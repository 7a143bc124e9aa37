package document

import "context"

// Store defines write-once/read-many persistence for uploaded files.
type Store interface {
	// Save persists a new document and returns it with its assigned ID.
	Save(ctx context.Context, d Document) (Document, error)

	// ByID retrieves a document by its identifier.
	ByID(ctx context.Context, id int64) (Document, error)

	// ByCollection lists documents uploaded into a collection.
	ByCollection(ctx context.Context, collection string) ([]Document, error)
}
