package fulltext

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/hytale-docs/docsearch/internal/indexing"
)

const (
	batchSize = 100

	// VersionFile is written next to an exported index directory
	VersionFile = ".index_version"
)

// record is the stored form of a document
type record struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Href        string   `json:"href"`
	Keywords    []string `json:"keywords"`
}

func newRecord(doc indexing.Document) record {
	return record{
		Title:       doc.Title,
		Description: doc.Description,
		Content:     doc.Excerpt,
		Category:    doc.Category,
		Href:        doc.Href,
		Keywords:    indexing.ExtractKeywords(doc.Title, doc.Excerpt),
	}
}

// NewMemIndex builds an in-memory index keyed by href
func NewMemIndex(docs []indexing.Document) (Index, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create memory index: %w", err)
	}

	if err := load(index, docs); err != nil {
		index.Close()
		return nil, err
	}
	return Wrap(index), nil
}

// load indexes docs in batches
func load(index bleve.Index, docs []indexing.Document) error {
	batch := index.NewBatch()
	for i, doc := range docs {
		if err := batch.Index(doc.Href, newRecord(doc)); err != nil {
			return fmt.Errorf("failed to add document %s to batch: %w", doc.Href, err)
		}

		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}

// Export writes docs to an on-disk index at dir, replacing any previous index.
// The index is built in a temporary directory and renamed into place, then the
// schema version is recorded in VersionFile next to dir.
func Export(dir string, docs []indexing.Document) error {
	tempDir := dir + ".tmp"

	// Leftover from an interrupted export
	os.RemoveAll(tempDir)

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.New(tempDir, bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}

	if err := load(index, docs); err != nil {
		index.Close()
		os.RemoveAll(tempDir)
		return err
	}

	if err := index.Close(); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("failed to close temp index: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempDir)
		return fmt.Errorf("failed to remove old index: %w", err)
	}

	if err := os.Rename(tempDir, dir); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	return WriteVersion(dir)
}

// Open opens an exported index, refusing one written with another schema version
func Open(dir string) (Index, error) {
	if version := ReadVersion(dir); version != indexing.IndexSchemaVersion {
		return nil, fmt.Errorf("index schema version mismatch (have: v%d, want: v%d)", version, indexing.IndexSchemaVersion)
	}

	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return Wrap(index), nil
}

// WriteVersion records the current schema version for the index at dir
func WriteVersion(dir string) error {
	path := filepath.Join(filepath.Dir(dir), VersionFile)
	content := strconv.Itoa(indexing.IndexSchemaVersion)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	return nil
}

// ReadVersion returns the schema version recorded for the index at dir, 0 when unknown
func ReadVersion(dir string) int {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(dir), VersionFile))
	if err != nil {
		return 0
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return version
}
