package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docdexhq/docdex/domain/vector"
)

type memoryCollection struct {
	dimension int
	points    map[string]vector.Point
}

// Memory is an in-memory vector.Index with cosine ranking. It backs tests
// and embedded deployments that run without a Qdrant server.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memoryCollection),
	}
}

// EnsureCollection creates the collection if absent.
func (m *Memory) EnsureCollection(_ context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[name]; ok {
		return nil
	}
	m.collections[name] = &memoryCollection{
		dimension: dimension,
		points:    make(map[string]vector.Point),
	}
	return nil
}

// ResetCollection destructively recreates the collection.
func (m *Memory) ResetCollection(_ context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[name] = &memoryCollection{
		dimension: dimension,
		points:    make(map[string]vector.Point),
	}
	return nil
}

// DeleteCollection removes the collection and its points.
func (m *Memory) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, name)
	return nil
}

// Upsert writes points with last-write-wins semantics per id.
func (m *Memory) Upsert(_ context.Context, name string, points []vector.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vector.ErrCollectionMissing, name)
	}
	for _, p := range points {
		coll.points[p.ID()] = p
	}
	return nil
}

// Search returns the limit nearest points by cosine similarity in
// descending score order.
func (m *Memory) Search(_ context.Context, name string, query []float32, limit int) ([]vector.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vector.ErrCollectionMissing, name)
	}

	hits := make([]vector.Hit, 0, len(coll.points))
	for _, p := range coll.points {
		score := cosineSimilarity(query, p.Vector())
		hits = append(hits, vector.NewHit(p.ID(), score, p.Payload()))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score() > hits[j].Score()
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Scroll lists up to limit points in unspecified order.
func (m *Memory) Scroll(_ context.Context, name string, limit int) ([]vector.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vector.ErrCollectionMissing, name)
	}

	points := make([]vector.Point, 0, limit)
	for _, p := range coll.points {
		if limit > 0 && len(points) >= limit {
			break
		}
		points = append(points, p)
	}
	return points, nil
}

// Count returns the number of points in the collection.
func (m *Memory) Count(_ context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", vector.ErrCollectionMissing, name)
	}
	return int64(len(coll.points)), nil
}

// Clear deletes every point while keeping the collection.
func (m *Memory) Clear(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vector.ErrCollectionMissing, name)
	}
	coll.points = make(map[string]vector.Point)
	return nil
}

// Ping always succeeds for the in-memory index.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

var _ vector.Index = (*Memory)(nil)
