package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/internal/log"
)

// TargetAll is the sentinel collection name that fans a search out over
// every registered collection.
const TargetAll = "__all__"

// unknownField substitutes for payload fields missing from an indexed
// point.
const unknownField = "N/A"

// Result is a single ranked search hit.
type Result struct {
	collection string
	source     string
	chunk      string
	score      float64
}

// NewResult creates a Result.
func NewResult(collectionName, source, chunk string, score float64) Result {
	return Result{
		collection: collectionName,
		source:     source,
		chunk:      chunk,
		score:      score,
	}
}

// Collection returns the collection the hit came from.
func (r Result) Collection() string { return r.collection }

// Source returns the originating filename.
func (r Result) Source() string { return r.source }

// Chunk returns the matched text segment.
func (r Result) Chunk() string { return r.chunk }

// Score returns the cosine similarity score.
func (r Result) Score() float64 { return r.score }

// Response carries ranked results plus per-collection diagnostics for
// fan-out searches. A collection that failed during fan-out appears in
// Diagnostics and contributes no results.
type Response struct {
	Results     []Result
	Diagnostics map[string]string
}

// Searcher ranks query text against one collection or all of them.
type Searcher struct {
	registry    collection.Registry
	index       vector.Index
	embedder    vector.Embedder
	searchLimit int
	fanoutLimit int
	logger      *log.Logger
}

// NewSearcher creates a Searcher. searchLimit caps the merged result
// list; fanoutLimit caps per-collection results during fan-out.
func NewSearcher(
	registry collection.Registry,
	index vector.Index,
	embedder vector.Embedder,
	searchLimit, fanoutLimit int,
	logger *log.Logger,
) *Searcher {
	if logger == nil {
		logger = log.Default()
	}
	if searchLimit <= 0 {
		searchLimit = 10
	}
	if fanoutLimit <= 0 {
		fanoutLimit = 5
	}
	return &Searcher{
		registry:    registry,
		index:       index,
		embedder:    embedder,
		searchLimit: searchLimit,
		fanoutLimit: fanoutLimit,
		logger:      logger,
	}
}

// Search embeds the query once and ranks it against the target
// collection, or against every registered collection when target is
// TargetAll.
func (s *Searcher) Search(ctx context.Context, target, query string) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{}, ErrEmptyQuery
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return Response{}, err
	}
	if len(vectors) != 1 {
		return Response{}, fmt.Errorf("embed query: got %d vectors for one text", len(vectors))
	}
	queryVec := vectors[0]

	if target == TargetAll {
		return s.searchAll(ctx, queryVec)
	}
	return s.searchOne(ctx, target, queryVec)
}

func (s *Searcher) searchOne(ctx context.Context, name string, queryVec []float32) (Response, error) {
	if _, err := s.registry.Find(ctx, name); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return Response{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
		return Response{}, err
	}

	hits, err := s.index.Search(ctx, name, queryVec, s.searchLimit)
	if err != nil {
		// Registered but never ingested into: vector side does not exist yet.
		if errors.Is(err, vector.ErrCollectionMissing) {
			return Response{Results: []Result{}, Diagnostics: map[string]string{}}, nil
		}
		return Response{}, err
	}

	return Response{
		Results:     resultsFromHits(name, hits),
		Diagnostics: map[string]string{},
	}, nil
}

// searchAll fans the query out over every registered collection. A
// failing collection is reported in Diagnostics instead of failing the
// whole search.
func (s *Searcher) searchAll(ctx context.Context, queryVec []float32) (Response, error) {
	collections, err := s.registry.FindAll(ctx)
	if err != nil {
		return Response{}, err
	}

	var (
		mu          sync.Mutex
		merged      []Result
		diagnostics = map[string]string{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collections {
		name := c.Name()
		g.Go(func() error {
			hits, err := s.index.Search(gctx, name, queryVec, s.fanoutLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Never-ingested collections simply contribute nothing.
				if !errors.Is(err, vector.ErrCollectionMissing) {
					s.logger.WarnContext(gctx, "collection search failed",
						"collection", name, "error", err)
					diagnostics[name] = err.Error()
				}
				return nil
			}
			merged = append(merged, resultsFromHits(name, hits)...)
			return nil
		})
	}
	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score() > merged[j].Score()
	})
	if len(merged) > s.searchLimit {
		merged = merged[:s.searchLimit]
	}
	if merged == nil {
		merged = []Result{}
	}

	return Response{Results: merged, Diagnostics: diagnostics}, nil
}

// resultsFromHits converts index hits into results, substituting defaults
// for missing payload fields. The collection falls back to the searched
// name so fan-out provenance survives sparse payloads.
func resultsFromHits(searched string, hits []vector.Hit) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		collectionName := h.Payload().Collection()
		if collectionName == "" {
			collectionName = searched
		}
		source := h.Payload().Source()
		if source == "" {
			source = unknownField
		}
		chunk := h.Payload().Chunk()
		if chunk == "" {
			chunk = unknownField
		}
		results = append(results, NewResult(collectionName, source, chunk, h.Score()))
	}
	return results
}
