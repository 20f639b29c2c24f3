package fulltext

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/hytale-docs/docsearch/internal/indexing"
)

// Hit is a document matched by a full-text query
type Hit struct {
	indexing.Document
	Score float64 `json:"score"`
}

// Search runs a match query against index and returns at most limit hits, best first
func Search(index Index, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	req.Fields = []string{"*"}

	result, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		doc := indexing.Document{Href: match.ID}

		if title, ok := match.Fields["title"].(string); ok {
			doc.Title = title
		}
		if description, ok := match.Fields["description"].(string); ok {
			doc.Description = description
		}
		if content, ok := match.Fields["content"].(string); ok {
			doc.Excerpt = content
		}
		if category, ok := match.Fields["category"].(string); ok {
			doc.Category = category
		}
		if rest, ok := strings.CutPrefix(doc.Href, indexing.HrefPrefix); ok && rest != "" {
			doc.Path = strings.Split(rest, "/")
		}

		hits = append(hits, Hit{Document: doc, Score: match.Score})
	}
	return hits, nil
}
