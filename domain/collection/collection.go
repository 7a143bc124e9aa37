// Package collection defines the collection aggregate: a named partition of
// the vector index together with its registry metadata.
package collection

import "time"

// Collection is the registry-side view of a vector collection.
// docsCount tracks the number of chunks indexed into the collection and is
// mutated only through atomic registry operations.
type Collection struct {
	name        string
	description string
	createdAt   time.Time
	docsCount   int64
}

// New creates a Collection with a zero chunk counter.
func New(name, description string) Collection {
	return Collection{
		name:        name,
		description: description,
		createdAt:   time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Collection from persisted state.
func Reconstruct(name, description string, createdAt time.Time, docsCount int64) Collection {
	return Collection{
		name:        name,
		description: description,
		createdAt:   createdAt,
		docsCount:   docsCount,
	}
}

// Name returns the unique collection name.
func (c Collection) Name() string { return c.name }

// Description returns the collection description.
func (c Collection) Description() string { return c.description }

// CreatedAt returns the creation timestamp (UTC).
func (c Collection) CreatedAt() time.Time { return c.createdAt }

// DocsCount returns the number of chunks indexed into the collection.
func (c Collection) DocsCount() int64 { return c.docsCount }
