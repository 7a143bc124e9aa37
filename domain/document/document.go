// Package document defines the stored-upload aggregate: the original bytes
// of every ingested file, kept for inspection and re-processing.
package document

import "time"

// Document is an uploaded file persisted write-once in the blob store.
// The ingestion pipeline processes the bytes it already holds; the stored
// copy is never read back as part of the same upload.
type Document struct {
	id         int64
	filename   string
	collection string
	size       int64
	content    []byte
	createdAt  time.Time
}

// New creates a Document from raw upload bytes.
func New(filename, collection string, content []byte) Document {
	copied := make([]byte, len(content))
	copy(copied, content)
	return Document{
		filename:   filename,
		collection: collection,
		size:       int64(len(content)),
		content:    copied,
		createdAt:  time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Document from persisted state.
func Reconstruct(id int64, filename, collection string, size int64, content []byte, createdAt time.Time) Document {
	return Document{
		id:         id,
		filename:   filename,
		collection: collection,
		size:       size,
		content:    content,
		createdAt:  createdAt,
	}
}

// ID returns the store-assigned identifier (zero before Save).
func (d Document) ID() int64 { return d.id }

// Filename returns the original upload filename.
func (d Document) Filename() string { return d.filename }

// Collection returns the owning collection name.
func (d Document) Collection() string { return d.collection }

// Size returns the content length in bytes.
func (d Document) Size() int64 { return d.size }

// Content returns the raw file bytes.
func (d Document) Content() []byte { return d.content }

// CreatedAt returns the upload timestamp (UTC).
func (d Document) CreatedAt() time.Time { return d.createdAt }
