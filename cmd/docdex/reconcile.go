package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/infrastructure/search"
	"github.com/docdexhq/docdex/internal/log"
)

func reconcileCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute collection chunk counters from the vector index",
		Long: `Recompute every collection's chunk counter from the actual point
count in the vector index. Repairs drift left behind by counter updates
that failed after a successful indexing write.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runReconcile(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)

	opts := []docdex.Option{
		docdex.WithDataDir(cfg.DataDir()),
		docdex.WithLogger(logger),
		docdex.WithQdrant(search.QdrantConfig{
			URL:     cfg.VectorStore().URL(),
			APIKey:  cfg.VectorStore().APIKey(),
			Timeout: cfg.VectorStore().Timeout(),
		}),
		// Reconciliation never embeds; a no-op embedder satisfies wiring.
		docdex.WithEmbedder(noopEmbedder{}),
		docdex.WithDimension(cfg.Dimension()),
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

	client, err := docdex.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create docdex client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close docdex client", "error", err)
		}
	}()

	if err := client.Collections.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	logger.Info("reconciliation complete")
	return nil
}

type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
