package collection

import (
	"context"
	"errors"
)

// ErrNotFound indicates the named collection is not registered.
var ErrNotFound = errors.New("collection not found")

// ErrRegistryUnavailable indicates the registry backend could not be
// reached or rejected the operation for reasons other than missing data.
var ErrRegistryUnavailable = errors.New("registry unavailable")

// Registry defines persistence operations for collection metadata.
// The registry is the source of truth for collection existence; the vector
// side of a collection may lag behind it (see the ingestion service).
type Registry interface {
	// Find retrieves a collection by name. Returns ErrNotFound when the
	// name is not registered.
	Find(ctx context.Context, name string) (Collection, error)

	// FindAll lists every registered collection.
	FindAll(ctx context.Context) ([]Collection, error)

	// Insert registers a new collection. Fails if the name is taken.
	Insert(ctx context.Context, c Collection) (Collection, error)

	// IncrementCount adds by to the collection's chunk counter as a single
	// atomic store-side operation (never read-modify-write).
	IncrementCount(ctx context.Context, name string, by int) error

	// SetCount overwrites the collection's chunk counter.
	SetCount(ctx context.Context, name string, value int64) error

	// Delete removes the collection's registry entry.
	Delete(ctx context.Context, name string) error

	// Ping verifies registry connectivity.
	Ping(ctx context.Context) error
}
