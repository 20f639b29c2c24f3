package indexing

const (
	// ExcerptLength is the number of body runes kept on a Document for content matching
	ExcerptLength = 500

	// IndexSentinel is the filename stem of a directory's home document
	IndexSentinel = "index"

	// DefaultCategory is used for documents that sit directly in the locale root
	DefaultCategory = "docs"

	// HrefPrefix is prepended to the slug path of every document
	HrefPrefix = "/docs/"

	// FallbackLocale selects the category labels used for unknown locales
	FallbackLocale = "en"

	// IndexSchemaVersion increments when the exported full-text document layout changes
	// v1: title/description/content/category/href, v2: keywords field
	IndexSchemaVersion = 2
)

// DefaultExtensions are the recognized document extensions
var DefaultExtensions = []string{".md", ".mdx"}
