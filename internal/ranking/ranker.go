// Package ranking scores documents against a free-text query.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hytale-docs/docsearch/internal/indexing"
)

// Score weights
const (
	TitleWeight       = 10
	ExactTitleBonus   = 5
	DescriptionWeight = 5
	ContentWeight     = 1
)

// DefaultLimit is the maximum number of results returned by a search
const DefaultLimit = 10

// Tokenize lowercases the query and splits it on whitespace
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Score sums the per-token weights of doc. Tokens must already be lowercase.
func Score(doc indexing.Document, tokens []string) int {
	title := strings.ToLower(doc.Title)
	description := strings.ToLower(doc.Description)
	content := strings.ToLower(doc.Excerpt)

	score := 0
	for _, token := range tokens {
		if strings.Contains(title, token) {
			score += TitleWeight
			if title == token {
				score += ExactTitleBonus
			}
		}
		if strings.Contains(description, token) {
			score += DescriptionWeight
		}
		if strings.Contains(content, token) {
			score += ContentWeight
		}
	}
	return score
}

type scored struct {
	doc   indexing.Document
	score int
}

// Rank returns at most limit documents matching query, best first.
// Ties are broken by href so the order never depends on the walk.
// A limit <= 0 means DefaultLimit.
func Rank(docs []indexing.Document, query string, limit int) []indexing.Document {
	if limit <= 0 {
		limit = DefaultLimit
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []indexing.Document{}
	}

	matches := make([]scored, 0, len(docs))
	for _, doc := range docs {
		if s := Score(doc, tokens); s > 0 {
			matches = append(matches, scored{doc: doc, score: s})
		}
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.doc.Href, b.doc.Href)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]indexing.Document, len(matches))
	for i, m := range matches {
		results[i] = m.doc
	}
	return results
}

// Group is the set of results sharing one category
type Group struct {
	Category string              `json:"category"`
	Results  []indexing.Document `json:"results"`
}

// GroupByCategory partitions ranked results by category, keeping the order in which each
// category first appears and the rank order inside a category.
func GroupByCategory(results []indexing.Document) []Group {
	groups := []Group{}
	index := make(map[string]int)
	for _, doc := range results {
		i, ok := index[doc.Category]
		if !ok {
			i = len(groups)
			index[doc.Category] = i
			groups = append(groups, Group{Category: doc.Category})
		}
		groups[i].Results = append(groups[i].Results, doc)
	}
	return groups
}
