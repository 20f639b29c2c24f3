package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hytale-docs/docsearch/internal/common"
	"github.com/hytale-docs/docsearch/internal/fulltext"
	"github.com/hytale-docs/docsearch/internal/indexing"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <content-dir> <locale> <index-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s content/docs fr search/fr/index\n", os.Args[0])
		os.Exit(1)
	}

	contentDir := os.Args[1]
	locale := os.Args[2]
	indexDir := os.Args[3]

	config := common.NewDefaultConfig()
	logger := common.InitLogger(config, true)

	logger.Info().
		Int("schema", indexing.IndexSchemaVersion).
		Str("content_dir", contentDir).
		Str("locale", locale).
		Msg("Documentation indexer")

	// Step 1: Index the locale tree
	start := time.Now()
	indexer := indexing.NewIndexer(os.DirFS(contentDir),
		indexing.WithCategories(indexing.NewCategoryTable(config.Categories, config.Content.FallbackLocale)),
		indexing.WithLogger(logger),
	)

	out, err := indexer.Build(context.Background(), locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to index documentation")
	}
	if len(out.Documents) == 0 {
		logger.Fatal().Str("locale", locale).Msg("No documents found, refusing to export an empty index")
	}

	logger.Info().
		Int("documents", len(out.Documents)).
		Int("skipped", len(out.Skipped)).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("Parsed documentation")

	for _, skipped := range out.Skipped {
		logger.Warn().Str("file", skipped.File).Str("reason", string(skipped.Reason)).Msg("Skipped")
	}

	// Step 2: Export the full-text index
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create index directory")
	}

	logger.Info().Str("index_dir", indexDir).Msg("Creating search index")
	if err := fulltext.Export(indexDir, out.Documents); err != nil {
		logger.Fatal().Err(err).Msg("Failed to export index")
	}

	// Step 3: Reopen it to verify
	index, err := fulltext.Open(indexDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Exported index cannot be opened")
	}
	defer index.Close()

	count, err := index.DocCount()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to count indexed documents")
	}

	logger.Info().
		Str("location", indexDir).
		Int64("documents", int64(count)).
		Int("schema", indexing.IndexSchemaVersion).
		Msg("Indexing complete")
}
