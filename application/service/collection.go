package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/internal/log"
)

// CollectionService manages collection lifecycle across the registry and
// the vector index. The registry is the source of truth: a collection
// whose vector side is missing gets re-created on the next ingestion.
type CollectionService struct {
	registry  collection.Registry
	index     vector.Index
	dimension int
	logger    *log.Logger
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(registry collection.Registry, index vector.Index, dimension int, logger *log.Logger) *CollectionService {
	if logger == nil {
		logger = log.Default()
	}
	return &CollectionService{
		registry:  registry,
		index:     index,
		dimension: dimension,
		logger:    logger,
	}
}

// Create registers a new collection and provisions its vector side.
// Creation is never destructive: an existing name fails with
// ErrCollectionExists. A vector-side provisioning failure degrades to a
// warning because ingestion re-ensures the collection before writing.
func (s *CollectionService) Create(ctx context.Context, name, description string) (collection.Collection, error) {
	if _, err := s.registry.Find(ctx, name); err == nil {
		return collection.Collection{}, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	} else if !errors.Is(err, collection.ErrNotFound) {
		return collection.Collection{}, err
	}

	created, err := s.registry.Insert(ctx, collection.New(name, description))
	if err != nil {
		return collection.Collection{}, err
	}

	if err := s.index.EnsureCollection(ctx, name, s.dimension); err != nil {
		s.logger.WarnContext(ctx, "vector collection not provisioned, will retry on first ingest",
			"collection", name, "error", err)
	}

	return created, nil
}

// Reset destructively re-creates a collection: the vector side is wiped
// and the chunk counter returns to zero. A missing collection is created.
func (s *CollectionService) Reset(ctx context.Context, name, description string) (collection.Collection, error) {
	existing, err := s.registry.Find(ctx, name)
	switch {
	case errors.Is(err, collection.ErrNotFound):
		existing, err = s.registry.Insert(ctx, collection.New(name, description))
		if err != nil {
			return collection.Collection{}, err
		}
	case err != nil:
		return collection.Collection{}, err
	default:
		if err := s.registry.SetCount(ctx, name, 0); err != nil {
			return collection.Collection{}, err
		}
		existing = collection.Reconstruct(existing.Name(), existing.Description(), existing.CreatedAt(), 0)
	}

	if err := s.index.ResetCollection(ctx, name, s.dimension); err != nil {
		return collection.Collection{}, fmt.Errorf("reset vector collection: %w", err)
	}

	return existing, nil
}

// Clear removes every indexed point from a collection while keeping its
// registration and uploaded documents.
func (s *CollectionService) Clear(ctx context.Context, name string) error {
	if _, err := s.registry.Find(ctx, name); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
		return err
	}

	if err := s.index.Clear(ctx, name); err != nil && !errors.Is(err, vector.ErrCollectionMissing) {
		return fmt.Errorf("clear vector collection: %w", err)
	}

	return s.registry.SetCount(ctx, name, 0)
}

// Delete removes a collection from both the registry and the vector index.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	if _, err := s.registry.Find(ctx, name); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
		return err
	}

	if err := s.index.DeleteCollection(ctx, name); err != nil && !errors.Is(err, vector.ErrCollectionMissing) {
		return fmt.Errorf("delete vector collection: %w", err)
	}

	return s.registry.Delete(ctx, name)
}

// List returns every registered collection.
func (s *CollectionService) List(ctx context.Context) ([]collection.Collection, error) {
	return s.registry.FindAll(ctx)
}

// Get returns a single collection by name.
func (s *CollectionService) Get(ctx context.Context, name string) (collection.Collection, error) {
	c, err := s.registry.Find(ctx, name)
	if errors.Is(err, collection.ErrNotFound) {
		return collection.Collection{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, err
}

// Sample returns up to limit indexed points for inspection, without
// ordering guarantees.
func (s *CollectionService) Sample(ctx context.Context, name string, limit int) ([]vector.Point, error) {
	if _, err := s.registry.Find(ctx, name); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
		return nil, err
	}

	points, err := s.index.Scroll(ctx, name, limit)
	if errors.Is(err, vector.ErrCollectionMissing) {
		return []vector.Point{}, nil
	}
	return points, err
}

// Reconcile recomputes every collection's chunk counter from the vector
// index. It repairs drift left behind by counter updates that failed
// after a successful upsert.
func (s *CollectionService) Reconcile(ctx context.Context) error {
	collections, err := s.registry.FindAll(ctx)
	if err != nil {
		return err
	}

	for _, c := range collections {
		count, err := s.index.Count(ctx, c.Name())
		if err != nil {
			if errors.Is(err, vector.ErrCollectionMissing) {
				count = 0
			} else {
				s.logger.WarnContext(ctx, "reconcile skipped collection",
					"collection", c.Name(), "error", err)
				continue
			}
		}
		if count == c.DocsCount() {
			continue
		}
		if err := s.registry.SetCount(ctx, c.Name(), count); err != nil {
			return fmt.Errorf("reconcile %s: %w", c.Name(), err)
		}
		s.logger.InfoContext(ctx, "reconciled collection counter",
			"collection", c.Name(), "was", c.DocsCount(), "now", count)
	}

	return nil
}

// Health reports connectivity of the registry and the vector store.
type Health struct {
	RegistryOK    bool
	VectorStoreOK bool
}

// OK reports whether every dependency is reachable.
func (h Health) OK() bool {
	return h.RegistryOK && h.VectorStoreOK
}

// Health checks connectivity of both backing stores.
func (s *CollectionService) Health(ctx context.Context) Health {
	h := Health{RegistryOK: true, VectorStoreOK: true}

	if err := s.registry.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "registry unreachable", "error", err)
		h.RegistryOK = false
	}
	if err := s.index.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "vector store unreachable", "error", err)
		h.VectorStoreOK = false
	}

	return h
}
