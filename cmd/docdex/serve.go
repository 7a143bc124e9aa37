package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/infrastructure/api"
	"github.com/docdexhq/docdex/infrastructure/chunking"
	"github.com/docdexhq/docdex/infrastructure/provider"
	"github.com/docdexhq/docdex/infrastructure/search"
	"github.com/docdexhq/docdex/internal/config"
	"github.com/docdexhq/docdex/internal/log"
)

// shutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                     Server host to bind to (default: 0.0.0.0)
  PORT                     Server port to listen on (default: 8080)
  DATA_DIR                 Data directory (default: ~/.docdex)
  DB_URL                   Database URL (default: sqlite:///{data_dir}/docdex.db)
  LOG_LEVEL                Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT               Log format: pretty, json (default: pretty)
  API_KEYS                 Comma-separated list of valid API keys

  EMBEDDING_*              Embedding service configuration
    BASE_URL               Base URL (default: https://api.mistral.ai/v1)
    MODEL                  Model identifier (default: mistral-embed)
    API_KEY                API key for authentication (required)
    TIMEOUT                Request timeout in seconds (default: 60)
    MAX_RETRIES            Retry attempts (default: 5)

  QDRANT_URL               Qdrant base URL (default: http://localhost:6333)
  QDRANT_API_KEY           Qdrant API key
  QDRANT_TIMEOUT           Qdrant request timeout in seconds (default: 30)

  DIMENSION                Embedding vector dimensionality (default: 1024)
  CHUNK_SIZE               Chunk size in characters (default: 1000)
  CHUNK_OVERLAP            Chunk overlap in characters (default: 200)
  SEARCH_LIMIT             Merged search result limit (default: 10)
  FANOUT_LIMIT             Per-collection limit during fan-out (default: 5)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)

	embedding := cfg.EmbeddingEndpoint()
	if !embedding.IsConfigured() {
		return errors.New("EMBEDDING_API_KEY is required")
	}

	opts := []docdex.Option{
		docdex.WithDataDir(cfg.DataDir()),
		docdex.WithLogger(logger),
		docdex.WithQdrant(search.QdrantConfig{
			URL:     cfg.VectorStore().URL(),
			APIKey:  cfg.VectorStore().APIKey(),
			Timeout: cfg.VectorStore().Timeout(),
		}),
		docdex.WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:        embedding.APIKey(),
			BaseURL:       embedding.BaseURL(),
			Model:         embedding.Model(),
			Timeout:       embedding.Timeout(),
			MaxRetries:    embedding.MaxRetries(),
			InitialDelay:  embedding.InitialDelay(),
			BackoffFactor: embedding.BackoffFactor(),
		}),
		docdex.WithDimension(cfg.Dimension()),
		docdex.WithChunkParams(chunking.Params{
			Size:    cfg.ChunkSize(),
			Overlap: cfg.ChunkOverlap(),
		}),
		docdex.WithSearchLimit(cfg.SearchLimit()),
		docdex.WithFanoutLimit(cfg.FanoutLimit()),
	}

	dbURL := cfg.DBURL()
	switch {
	case strings.HasPrefix(dbURL, "sqlite:///"):
		opts = append(opts, docdex.WithSQLite(strings.TrimPrefix(dbURL, "sqlite:///")))
	case dbURL != "":
		opts = append(opts, docdex.WithPostgres(dbURL))
	default:
		opts = append(opts, docdex.WithSQLite(""))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.Slog().LogAttrs(ctx, slog.LevelInfo, "starting docdex", attrs...)

	client, err := docdex.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create docdex client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close docdex client", "error", err)
		}
	}()

	apiServer := api.NewAPIServer(client, cfg.APIKeys())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
