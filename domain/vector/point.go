// Package vector defines the vector-index abstraction: points, search hits,
// the index store interface, and the embedding capability.
package vector

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// Payload is the non-vector metadata attached to an indexed point.
type Payload struct {
	source     string
	collection string
	chunk      string
}

// NewPayload creates a Payload.
func NewPayload(source, collection, chunk string) Payload {
	return Payload{
		source:     source,
		collection: collection,
		chunk:      chunk,
	}
}

// Source returns the original upload filename.
func (p Payload) Source() string { return p.source }

// Collection returns the owning collection name.
func (p Payload) Collection() string { return p.collection }

// Chunk returns the indexed text segment.
func (p Payload) Chunk() string { return p.chunk }

// Point is a single indexed entry: id, embedding vector, and payload.
// Upserts are last-write-wins per id within a collection.
type Point struct {
	id      string
	vector  []float32
	payload Payload
}

// NewPoint creates a Point with a defensive copy of the vector.
func NewPoint(id string, vec []float32, payload Payload) Point {
	copied := make([]float32, len(vec))
	copy(copied, vec)
	return Point{
		id:      id,
		vector:  copied,
		payload: payload,
	}
}

// ID returns the point identifier (a UUID string).
func (p Point) ID() string { return p.id }

// Vector returns the embedding vector.
func (p Point) Vector() []float32 {
	copied := make([]float32, len(p.vector))
	copy(copied, p.vector)
	return copied
}

// Payload returns the point payload.
func (p Point) Payload() Payload { return p.payload }

// PointID derives a deterministic UUID for a chunk from its collection,
// source filename, and position within the source. Re-ingesting the same
// file overwrites exactly its own points; distinct files never collide.
func PointID(collection, source string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", collection, source, index)))
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// FromBytes fails only on wrong slice length, which cannot happen here.
		panic(err)
	}
	return id.String()
}

// Hit is a single ranked search result from the index.
type Hit struct {
	id      string
	score   float64
	payload Payload
}

// NewHit creates a Hit.
func NewHit(id string, score float64, payload Payload) Hit {
	return Hit{
		id:      id,
		score:   score,
		payload: payload,
	}
}

// ID returns the matched point id.
func (h Hit) ID() string { return h.id }

// Score returns the cosine similarity score.
func (h Hit) Score() float64 { return h.score }

// Payload returns the matched point payload.
func (h Hit) Payload() Payload { return h.payload }
