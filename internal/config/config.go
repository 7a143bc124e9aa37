// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultSearchLimit           = 10
	DefaultFanoutLimit           = 5
	DefaultDimension             = 1024
	DefaultChunkSize             = 1000
	DefaultChunkOverlap          = 200
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEmbeddingBaseURL      = "https://api.mistral.ai/v1"
	DefaultEmbeddingModel        = "mistral-embed"
	DefaultVectorStoreURL        = "http://localhost:6333"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the embedding service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		baseURL:       DefaultEmbeddingBaseURL,
		model:         DefaultEmbeddingModel,
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has an API key set.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// VectorStoreConfig configures the Qdrant connection.
type VectorStoreConfig struct {
	url     string
	apiKey  string
	timeout time.Duration
}

// NewVectorStoreConfig creates a new VectorStoreConfig with defaults.
func NewVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		url:     DefaultVectorStoreURL,
		timeout: 30 * time.Second,
	}
}

// URL returns the vector store base URL.
func (v VectorStoreConfig) URL() string { return v.url }

// APIKey returns the vector store API key.
func (v VectorStoreConfig) APIKey() string { return v.apiKey }

// Timeout returns the request timeout.
func (v VectorStoreConfig) Timeout() time.Duration { return v.timeout }

// VectorStoreOption is a functional option for VectorStoreConfig.
type VectorStoreOption func(*VectorStoreConfig)

// WithVectorStoreURL sets the vector store URL.
func WithVectorStoreURL(url string) VectorStoreOption {
	return func(v *VectorStoreConfig) { v.url = url }
}

// WithVectorStoreAPIKey sets the vector store API key.
func WithVectorStoreAPIKey(key string) VectorStoreOption {
	return func(v *VectorStoreConfig) { v.apiKey = key }
}

// WithVectorStoreTimeout sets the request timeout.
func WithVectorStoreTimeout(d time.Duration) VectorStoreOption {
	return func(v *VectorStoreConfig) { v.timeout = d }
}

// NewVectorStoreConfigWithOptions creates a VectorStoreConfig with options.
func NewVectorStoreConfigWithOptions(opts ...VectorStoreOption) VectorStoreConfig {
	v := NewVectorStoreConfig()
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	embeddingEndpoint Endpoint
	vectorStore       VectorStoreConfig
	apiKeys           []string
	dimension         int
	chunkSize         int
	chunkOverlap      int
	searchLimit       int
	fanoutLimit       int
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docdex"
	}
	return filepath.Join(home, ".docdex")
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:              DefaultHost,
		port:              DefaultPort,
		dataDir:           dataDir,
		dbURL:             "sqlite:///" + filepath.Join(dataDir, "docdex.db"),
		logLevel:          DefaultLogLevel,
		logFormat:         LogFormatPretty,
		embeddingEndpoint: NewEndpoint(),
		vectorStore:       NewVectorStoreConfig(),
		apiKeys:           []string{},
		dimension:         DefaultDimension,
		chunkSize:         DefaultChunkSize,
		chunkOverlap:      DefaultChunkOverlap,
		searchLimit:       DefaultSearchLimit,
		fanoutLimit:       DefaultFanoutLimit,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() Endpoint { return c.embeddingEndpoint }

// VectorStore returns the vector store config.
func (c AppConfig) VectorStore() VectorStoreConfig { return c.vectorStore }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// Dimension returns the embedding vector dimensionality.
func (c AppConfig) Dimension() int { return c.dimension }

// ChunkSize returns the chunk size in characters.
func (c AppConfig) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the chunk overlap in characters.
func (c AppConfig) ChunkOverlap() int { return c.chunkOverlap }

// SearchLimit returns the result limit for a merged search.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// FanoutLimit returns the per-collection result limit during fan-out.
func (c AppConfig) FanoutLimit() int { return c.fanoutLimit }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "docdex.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "docdex.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = e }
}

// WithVectorStore sets the vector store config.
func WithVectorStore(v VectorStoreConfig) AppConfigOption {
	return func(c *AppConfig) { c.vectorStore = v }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithDimension sets the embedding vector dimensionality.
func WithDimension(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.dimension = n
		}
	}
}

// WithChunkSize sets the chunk size.
func WithChunkSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithChunkOverlap sets the chunk overlap.
func WithChunkOverlap(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n >= 0 {
			c.chunkOverlap = n
		}
	}
}

// WithSearchLimit sets the merged search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithFanoutLimit sets the per-collection fan-out result limit.
func WithFanoutLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.fanoutLimit = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", c.embeddingEndpoint.BaseURL()),
		slog.String("embedding_model", c.embeddingEndpoint.Model()),
		slog.String("vector_store_url", c.vectorStore.URL()),
		slog.Int("dimension", c.dimension),
		slog.Int("chunk_size", c.chunkSize),
		slog.Int("chunk_overlap", c.chunkOverlap),
		slog.Int("api_keys_count", len(c.apiKeys)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
