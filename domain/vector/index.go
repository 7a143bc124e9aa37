package vector

import (
	"context"
	"errors"
)

// ErrIndexUnavailable indicates the vector store could not be reached.
var ErrIndexUnavailable = errors.New("vector store unavailable")

// ErrCollectionMissing indicates the vector-side collection does not exist.
var ErrCollectionMissing = errors.New("vector collection missing")

// Index defines collection-scoped operations against a vector store.
// Vectors within a collection share a fixed dimensionality and cosine
// distance, both set when the collection is created.
type Index interface {
	// EnsureCollection creates the collection if absent. Never destructive:
	// an existing collection keeps its points.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// ResetCollection destructively recreates the collection, wiping all
	// of its points.
	ResetCollection(ctx context.Context, name string, dimension int) error

	// DeleteCollection removes the collection and its points.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert writes points with last-write-wins semantics per id. From the
	// caller's view the call is atomic: success means all points are
	// visible, failure means none are guaranteed visible.
	Upsert(ctx context.Context, name string, points []Point) error

	// Search returns the limit nearest points by cosine similarity in
	// descending score order.
	Search(ctx context.Context, name string, query []float32, limit int) ([]Hit, error)

	// Scroll lists up to limit points without ordering guarantees.
	// Intended for inspection only.
	Scroll(ctx context.Context, name string, limit int) ([]Point, error)

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context, name string) (int64, error)

	// Clear deletes every point while keeping the collection itself.
	Clear(ctx context.Context, name string) error

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
