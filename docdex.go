// Package docdex provides a library for document ingestion and semantic
// search over named collections.
//
// Uploaded documents are stored, extracted to text, split into
// deterministic overlapping chunks, embedded in one batched call, and
// indexed into a vector store. Searches rank chunks by cosine similarity
// against a single collection or fan out over all of them.
//
// Basic usage:
//
//	client, err := docdex.New(ctx,
//	    docdex.WithSQLite(".docdex/data.db"),
//	    docdex.WithQdrant(search.QdrantConfig{URL: "http://localhost:6333"}),
//	    docdex.WithOpenAIConfig(provider.OpenAIConfig{APIKey: os.Getenv("EMBEDDING_API_KEY")}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Create a collection and ingest a document
//	_, err = client.Collections.Create(ctx, "notes", "personal notes")
//	result, err := client.Ingestion.Ingest(ctx, "notes", "meeting.txt", raw)
//
//	// Ranked search
//	resp, err := client.Search.Search(ctx, "notes", "action items from last week")
//	for _, r := range resp.Results {
//	    fmt.Println(r.Source(), r.Score())
//	}
package docdex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/docdexhq/docdex/application/service"
	"github.com/docdexhq/docdex/domain/document"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/infrastructure/chunking"
	"github.com/docdexhq/docdex/infrastructure/extract"
	"github.com/docdexhq/docdex/infrastructure/persistence"
	"github.com/docdexhq/docdex/infrastructure/search"
	"github.com/docdexhq/docdex/internal/config"
	"github.com/docdexhq/docdex/internal/database"
	"github.com/docdexhq/docdex/internal/log"
)

// ErrNoDatabase indicates no registry database was configured.
var ErrNoDatabase = errors.New("no database configured: use WithSQLite or WithPostgres")

// ErrNoEmbedder indicates no embedding provider was configured.
var ErrNoEmbedder = errors.New("no embedder configured: use WithOpenAIConfig or WithEmbedder")

// Client is the main entry point for the docdex library.
//
// Access resources via struct fields:
//
//	client.Collections.Create(ctx, "notes", "")
//	client.Ingestion.Ingest(ctx, "notes", "a.txt", raw)
//	client.Search.Search(ctx, docdex.TargetAll, "query")
type Client struct {
	// Public resource fields (direct service access)
	Collections *service.CollectionService
	Ingestion   *service.Ingestion
	Search      *service.Searcher
	Documents   document.Store

	db      database.Database
	index   vector.Index
	logger  *log.Logger
	closers []io.Closer
	closed  atomic.Bool
}

// TargetAll fans a search out over every registered collection.
const TargetAll = service.TargetAll

// New creates a new Client with the given options.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}
	if cfg.embedder == nil {
		return nil, ErrNoEmbedder
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.Default()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	var dbURL string
	switch cfg.database {
	case databaseSQLite:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(dataDir, "docdex.db")
		}
		dbURL = "sqlite:///" + path
	case databasePostgres:
		dbURL = cfg.dbDSN
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := persistence.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	var index vector.Index
	switch cfg.index {
	case indexQdrant:
		index, err = search.NewQdrant(cfg.qdrant)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	case indexCustom:
		index = cfg.customIndex
	default:
		index = search.NewMemory()
	}

	splitter, err := chunking.NewSplitter(cfg.chunkParams)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chunk params: %w", err)
	}

	registry := persistence.NewCollectionStore(db)
	blobs := persistence.NewDocumentStore(db)
	extractor := extract.NewExtractor(logger)

	client := &Client{
		Collections: service.NewCollectionService(registry, index, cfg.dimension, logger),
		Ingestion:   service.NewIngestion(registry, blobs, index, cfg.embedder, extractor, splitter, cfg.dimension, logger),
		Search:      service.NewSearcher(registry, index, cfg.embedder, cfg.searchLimit, cfg.fanoutLimit, logger),
		Documents:   blobs,
		db:          db,
		index:       index,
		logger:      logger,
		closers:     append(cfg.closers, extractor),
	}

	return client, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger {
	return c.logger
}

// Close releases the client's resources. It is safe to call twice.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
