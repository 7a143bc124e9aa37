package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/document"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/internal/log"
)

// TextExtractor converts raw file bytes into plain text.
type TextExtractor interface {
	Supported(filename string) bool
	Text(raw []byte, filename string) (string, error)
}

// Chunker splits extracted text into deterministic overlapping chunks.
type Chunker interface {
	Split(text string) []string
}

// IngestResult summarizes a completed ingestion.
type IngestResult struct {
	DocumentID int64
	Filename   string
	Collection string
	Chunks     int
}

// Ingestion runs the upload pipeline: store the original file, extract
// text, chunk, embed in one batch, and index the chunk vectors.
//
// Failure semantics: the original file is stored before any processing,
// so a failed ingestion keeps the upload for later retry. The collection
// counter only advances after a successful upsert.
type Ingestion struct {
	registry  collection.Registry
	blobs     document.Store
	index     vector.Index
	embedder  vector.Embedder
	extractor TextExtractor
	chunker   Chunker
	dimension int
	logger    *log.Logger
}

// NewIngestion creates an Ingestion service.
func NewIngestion(
	registry collection.Registry,
	blobs document.Store,
	index vector.Index,
	embedder vector.Embedder,
	extractor TextExtractor,
	chunker Chunker,
	dimension int,
	logger *log.Logger,
) *Ingestion {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestion{
		registry:  registry,
		blobs:     blobs,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		dimension: dimension,
		logger:    logger,
	}
}

// Ingest processes one uploaded file into the named collection.
// Re-ingesting the same filename overwrites its previous points.
func (s *Ingestion) Ingest(ctx context.Context, collectionName, filename string, raw []byte) (IngestResult, error) {
	if _, err := s.registry.Find(ctx, collectionName); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return IngestResult{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collectionName)
		}
		return IngestResult{}, err
	}

	// Reject unsupported formats before storing anything.
	if !s.extractor.Supported(filename) {
		_, err := s.extractor.Text(raw, filename)
		return IngestResult{}, err
	}

	saved, err := s.blobs.Save(ctx, document.New(filename, collectionName, raw))
	if err != nil {
		return IngestResult{}, fmt.Errorf("store upload: %w", err)
	}

	text, err := s.extractor.Text(raw, filename)
	if err != nil {
		return IngestResult{}, err
	}

	chunks := s.chunker.Split(text)
	result := IngestResult{
		DocumentID: saved.ID(),
		Filename:   filename,
		Collection: collectionName,
		Chunks:     len(chunks),
	}

	if len(chunks) == 0 {
		s.logger.InfoContext(ctx, "no indexable text in upload",
			"collection", collectionName, "file", filename)
		return result, nil
	}

	// One batched call for the whole document: embedding is all-or-nothing.
	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return IngestResult{}, err
	}
	if len(vectors) != len(chunks) {
		return IngestResult{}, fmt.Errorf("%w: %d vectors for %d chunks", ErrIndexing, len(vectors), len(chunks))
	}

	points := make([]vector.Point, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != s.dimension {
			return IngestResult{}, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				ErrIndexing, i, len(vectors[i]), s.dimension)
		}
		points[i] = vector.NewPoint(
			vector.PointID(collectionName, filename, i),
			vectors[i],
			vector.NewPayload(filename, collectionName, chunk),
		)
	}

	if err := s.index.EnsureCollection(ctx, collectionName, s.dimension); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrIndexing, err)
	}
	if err := s.index.Upsert(ctx, collectionName, points); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrIndexing, err)
	}

	// The upsert already succeeded: a failed counter update is drift the
	// reconcile sweep repairs, not a failed ingestion.
	if err := s.registry.IncrementCount(ctx, collectionName, len(points)); err != nil {
		s.logger.WarnContext(ctx, "chunk counter not updated",
			"collection", collectionName, "file", filename, "error", err)
	}

	s.logger.InfoContext(ctx, "document ingested",
		"collection", collectionName, "file", filename,
		"document_id", saved.ID(), "chunks", len(chunks))

	return result, nil
}
