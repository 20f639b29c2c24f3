package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/hytale-docs/docsearch/internal/catalog"
	"github.com/hytale-docs/docsearch/internal/common"
	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/metrics"
	"github.com/hytale-docs/docsearch/internal/server"
	"github.com/hytale-docs/docsearch/tools"
)

const (
	description       = "Localized documentation search service"
	defaultConfigFile = "docsearch.toml"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the flags shared by every subcommand
type options struct {
	configFiles []string
	contentDir  string
	host        string
	port        int
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          common.ServiceName,
		Short:        description,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVarP(&opts.configFiles, "config", "c", nil, "TOML config files, later files override earlier ones (default: "+defaultConfigFile+" if present)")
	root.PersistentFlags().StringVar(&opts.contentDir, "content-dir", "", "root of the per-locale documentation trees")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.host, "host", "", "listen host")
	serve.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), opts)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", common.ServiceName, common.Version)
		},
	}

	root.AddCommand(serve, mcpCmd, version)
	return root
}

// loadConfig resolves defaults, config files, environment and flags in that order
func loadConfig(opts *options) (*common.Config, error) {
	files := opts.configFiles
	if len(files) == 0 {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			files = []string{defaultConfigFile}
		}
	}

	config, err := common.LoadFromFiles(files...)
	if err != nil {
		return nil, err
	}

	common.ApplyFlagOverrides(config, opts.port, opts.host, opts.contentDir)
	return config, nil
}

// newCatalog wires the content store, indexer and search service described by config
func newCatalog(config *common.Config, logger arbor.ILogger, m *metrics.Metrics) (*catalog.Service, error) {
	timeout, err := config.SearchTimeout()
	if err != nil {
		return nil, err
	}

	indexer := indexing.NewIndexer(os.DirFS(config.Content.Dir),
		indexing.WithCategories(indexing.NewCategoryTable(config.Categories, config.Content.FallbackLocale)),
		indexing.WithExtensions(config.Content.Extensions...),
		indexing.WithExcerptLength(config.Content.ExcerptLength),
		indexing.WithLogger(logger),
	)

	return catalog.New(indexer, catalog.Config{
		Strategy:      catalog.Strategy(config.Search.Strategy),
		Timeout:       timeout,
		MaxResults:    config.Search.MaxResults,
		DefaultLocale: config.Content.DefaultLocale,
	}, logger, m), nil
}

func runServe(ctx context.Context, opts *options) error {
	config, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := common.InitLogger(config, true)
	logger.Info().
		Str("version", common.Version).
		Str("content_dir", config.Content.Dir).
		Str("strategy", config.Search.Strategy).
		Msg("Starting " + common.ServiceName)

	m := metrics.New()
	svc, err := newCatalog(config, logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing search catalog")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Search.Watch {
		go func() {
			if err := svc.Watch(ctx, config.Content.Dir); err != nil {
				logger.Error().Err(err).Msg("Content watcher stopped")
			}
		}()
	}

	srv := server.New(config.Address(), svc, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutdown signal received")

	shutdownTimeout, _ := config.ShutdownTimeout()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, opts *options) error {
	config, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	logger := common.InitLogger(config, false)
	logger.Info().Str("version", common.Version).Msg("MCP server starting")

	svc, err := newCatalog(config, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing search catalog")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Search.Watch {
		go func() {
			if err := svc.Watch(ctx, config.Content.Dir); err != nil {
				logger.Error().Err(err).Msg("Content watcher stopped")
			}
		}()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    common.ServiceName,
			Version: common.Version,
		},
		nil, // Default options
	)

	toolCount := tools.RegisterDocSearchTools(mcpServer, svc, logger)
	logger.Info().Int("tools", toolCount).Msg("Server ready and waiting for connections")

	start := time.Now()
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}

	logger.Info().Str("uptime", time.Since(start).Round(time.Second).String()).Msg("MCP server stopped")
	return nil
}
