package vector

import "context"

// Embedder produces one embedding vector per input text, in input order,
// from a single batched call. Implementations wrap an external embedding
// service; a failure for any element fails the whole batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
