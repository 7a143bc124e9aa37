package docdex

import (
	"io"

	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/infrastructure/chunking"
	"github.com/docdexhq/docdex/infrastructure/provider"
	"github.com/docdexhq/docdex/infrastructure/search"
	"github.com/docdexhq/docdex/internal/config"
	"github.com/docdexhq/docdex/internal/log"
)

// databaseType identifies the registry database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// indexType identifies the vector index backend.
type indexType int

const (
	indexUnset indexType = iota
	indexQdrant
	indexMemory
	indexCustom
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database    databaseType
	dbPath      string
	dbDSN       string
	dataDir     string
	index       indexType
	qdrant      search.QdrantConfig
	customIndex vector.Index
	embedder    vector.Embedder
	dimension   int
	chunkParams chunking.Params
	searchLimit int
	fanoutLimit int
	logger      *log.Logger
	closers     []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		dimension:   config.DefaultDimension,
		chunkParams: chunking.DefaultParams(),
		searchLimit: config.DefaultSearchLimit,
		fanoutLimit: config.DefaultFanoutLimit,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the registry database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the registry database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithQdrant configures Qdrant as the vector index backend.
func WithQdrant(cfg search.QdrantConfig) Option {
	return func(c *clientConfig) {
		c.index = indexQdrant
		c.qdrant = cfg
	}
}

// WithMemoryIndex configures the in-memory vector index. Indexed points
// do not survive restarts; intended for tests and experiments.
func WithMemoryIndex() Option {
	return func(c *clientConfig) {
		c.index = indexMemory
	}
}

// WithIndex sets a custom vector index implementation.
func WithIndex(idx vector.Index) Option {
	return func(c *clientConfig) {
		c.index = indexCustom
		c.customIndex = idx
	}
}

// WithEmbedder sets a custom embedding provider.
func WithEmbedder(e vector.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithOpenAIConfig configures the OpenAI-compatible embedding provider.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.embedder = provider.NewOpenAIEmbedder(cfg)
	}
}

// WithDimension sets the embedding vector dimensionality.
// Values <= 0 are ignored.
func WithDimension(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.dimension = n
		}
	}
}

// WithChunkParams sets the chunk size and overlap.
func WithChunkParams(p chunking.Params) Option {
	return func(c *clientConfig) {
		c.chunkParams = p
	}
}

// WithSearchLimit sets the merged search result limit.
// Values <= 0 are ignored.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithFanoutLimit sets the per-collection result limit for fan-out
// searches. Values <= 0 are ignored.
func WithFanoutLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.fanoutLimit = n
		}
	}
}

// WithDataDir sets the data directory for database storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
