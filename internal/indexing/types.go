package indexing

import "fmt"

// Document is one indexable documentation page
type Document struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Path        []string `json:"-"` // Slug segments below the locale root
	Href        string   `json:"href"`
	Excerpt     string   `json:"content"` // First ExcerptLength runes of the body
	Category    string   `json:"category"`
}

// SkipReason explains why a document file produced no Document
type SkipReason string

const (
	SkipReadFailed              SkipReason = "read_failed"
	SkipReadDirFailed           SkipReason = "read_dir_failed"
	SkipFrontMatterUnterminated SkipReason = "frontmatter_unterminated"
	SkipFrontMatterInvalid      SkipReason = "frontmatter_invalid"
	SkipMetadataInvalid         SkipReason = "metadata_invalid"
	SkipEmptySlug               SkipReason = "empty_slug"
	SkipRootIndex               SkipReason = "root_index"
)

// SkipError is the failure side of a per-file result
type SkipError struct {
	File   string // Path relative to the content store root
	Reason SkipReason
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// FileResult is the outcome of indexing one file: exactly one of Document or Skip is set
type FileResult struct {
	Document *Document
	Skip     *SkipError
}

// Outcome collects every file result of one locale build
type Outcome struct {
	Documents []Document
	Skipped   []SkipError
}

// add files a result into the matching side of the outcome
func (o *Outcome) add(r FileResult) {
	switch {
	case r.Skip != nil:
		o.Skipped = append(o.Skipped, *r.Skip)
	case r.Document != nil:
		o.Documents = append(o.Documents, *r.Document)
	}
}

// SkippedBy counts skipped files for the given reason
func (o Outcome) SkippedBy(reason SkipReason) int {
	n := 0
	for _, s := range o.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}
