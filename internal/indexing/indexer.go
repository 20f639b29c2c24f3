package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/ternarybob/arbor"

	"github.com/hytale-docs/docsearch/internal/common"
)

// Indexer produces the Document set of a locale from a content store.
// The store is rooted at the directory holding one subtree per locale (content/docs).
type Indexer struct {
	fsys          fs.FS
	categories    *CategoryTable
	validator     *MetadataValidator
	extensions    []string
	excerptLength int
	logger        arbor.ILogger
}

// Option configures an Indexer
type Option func(*Indexer)

// WithCategories sets the locale -> category label table
func WithCategories(table *CategoryTable) Option {
	return func(ix *Indexer) { ix.categories = table }
}

// WithValidator sets the front-matter validator
func WithValidator(v *MetadataValidator) Option {
	return func(ix *Indexer) { ix.validator = v }
}

// WithExtensions sets the recognized document extensions
func WithExtensions(exts ...string) Option {
	return func(ix *Indexer) { ix.extensions = slices.Clone(exts) }
}

// WithExcerptLength sets how many body runes are kept per document
func WithExcerptLength(n int) Option {
	return func(ix *Indexer) { ix.excerptLength = n }
}

// WithLogger sets the logger used to report skipped files
func WithLogger(logger arbor.ILogger) Option {
	return func(ix *Indexer) { ix.logger = logger }
}

// NewIndexer creates an indexer over fsys
func NewIndexer(fsys fs.FS, opts ...Option) *Indexer {
	ix := &Indexer{
		fsys:          fsys,
		extensions:    DefaultExtensions,
		excerptLength: ExcerptLength,
	}
	for _, opt := range opts {
		opt(ix)
	}

	if ix.categories == nil {
		ix.categories = NewCategoryTable(nil, FallbackLocale)
	}
	if ix.validator == nil {
		ix.validator = defaultValidator()
	}
	if len(ix.extensions) == 0 {
		ix.extensions = DefaultExtensions
	}
	if ix.excerptLength <= 0 {
		ix.excerptLength = ExcerptLength
	}
	if ix.logger == nil {
		ix.logger = common.NewDiscardLogger()
	}
	return ix
}

// Build indexes every document below the locale root.
// A missing locale root yields an empty outcome. Failures confined to one file or
// subdirectory are recorded in Outcome.Skipped; only a failure to list the locale root
// or a cancelled context is returned as an error.
func (ix *Indexer) Build(ctx context.Context, locale string) (Outcome, error) {
	var out Outcome

	if !validLocale(locale) {
		return out, nil
	}

	entries, err := fs.ReadDir(ix.fsys, locale)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return Outcome{}, fmt.Errorf("failed to read locale root %q: %w", locale, err)
	}

	if err := ix.walk(ctx, locale, locale, nil, entries, &out); err != nil {
		return Outcome{}, err
	}

	ix.logger.Debug().
		Str("locale", locale).
		Int("documents", len(out.Documents)).
		Int("skipped", len(out.Skipped)).
		Msg("Locale indexed")

	return out, nil
}

// walk visits the entries of dir. prefix holds the slug segments of dir below the locale
// root and is never modified; subdirectories receive their own extended copy.
func (ix *Indexer) walk(ctx context.Context, locale, dir string, prefix []string, entries []fs.DirEntry, out *Outcome) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		full := path.Join(dir, name)

		if entry.IsDir() {
			children, err := fs.ReadDir(ix.fsys, full)
			if err != nil {
				out.add(ix.skip(full, SkipReadDirFailed, err))
				continue
			}
			childPrefix := append(slices.Clip(prefix), name)
			if err := ix.walk(ctx, locale, full, childPrefix, children, out); err != nil {
				return err
			}
			continue
		}

		stem, ok := Stem(name, ix.extensions)
		if !ok {
			continue
		}
		out.add(ix.indexFile(locale, full, prefix, stem))
	}
	return nil
}

// indexFile turns one document file into a FileResult
func (ix *Indexer) indexFile(locale, file string, prefix []string, stem string) FileResult {
	if stem == "" {
		return ix.skip(file, SkipEmptySlug, nil)
	}

	slug := Slug(prefix, stem)
	if len(slug) == 0 {
		return ix.skip(file, SkipRootIndex, nil)
	}

	raw, err := fs.ReadFile(ix.fsys, file)
	if err != nil {
		return ix.skip(file, SkipReadFailed, err)
	}

	meta, body, err := SplitFrontMatter(string(raw))
	if err != nil {
		if errors.Is(err, ErrUnterminatedFrontMatter) {
			return ix.skip(file, SkipFrontMatterUnterminated, err)
		}
		return ix.skip(file, SkipFrontMatterInvalid, err)
	}

	if err := ix.validator.Validate(meta); err != nil {
		return ix.skip(file, SkipMetadataInvalid, err)
	}

	return FileResult{Document: &Document{
		Title:       ResolveTitle(meta, stem),
		Description: meta.String("description"),
		Path:        slug,
		Href:        Href(slug),
		Excerpt:     Excerpt(body, ix.excerptLength),
		Category:    ix.categories.Resolve(locale, prefix),
	}}
}

func (ix *Indexer) skip(file string, reason SkipReason, err error) FileResult {
	skip := &SkipError{File: file, Reason: reason, Err: err}

	if reason == SkipRootIndex {
		ix.logger.Debug().Str("file", file).Msg("Skipping root index document")
	} else {
		ix.logger.Warn().
			Err(err).
			Str("file", file).
			Str("reason", string(reason)).
			Msg("Skipping document")
	}

	return FileResult{Skip: skip}
}

// validLocale accepts a single path element so a locale can never escape the content root
func validLocale(locale string) bool {
	return locale != "" && locale != "." && fs.ValidPath(locale) && path.Base(locale) == locale
}
