package catalog

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hytale-docs/docsearch/internal/indexing"
)

// Fingerprint returns a stable hash of docs. It changes when any indexed field
// of any document changes, or when documents are added, removed or reordered.
func Fingerprint(docs []indexing.Document) string {
	h := sha256.New()

	for _, doc := range docs {
		for _, field := range []string{doc.Href, doc.Title, doc.Description, doc.Category, doc.Excerpt} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{1}) // document separator
	}

	return hex.EncodeToString(h.Sum(nil))
}
