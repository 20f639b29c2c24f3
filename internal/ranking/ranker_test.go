package ranking_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/ranking"
)

func doc(title, description, excerpt, href, category string) indexing.Document {
	return indexing.Document{
		Title:       title,
		Description: description,
		Excerpt:     excerpt,
		Href:        href,
		Category:    category,
	}
}

func hrefs(docs []indexing.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Href
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Install", []string{"install"}},
		{"  Server   SETUP \t guide\n", []string{"server", "setup", "guide"}},
		{"", []string{}},
		{"   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tokens := ranking.Tokenize(tt.query)
			assert.Len(t, tokens, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], tokens[i])
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		doc    indexing.Document
		tokens []string
		want   int
	}{
		{
			name:   "title description and content",
			doc:    doc("Installation Guide", "How to install the game", "Download the launcher and install.", "/docs/a", ""),
			tokens: []string{"install"},
			want:   16,
		},
		{
			name:   "exact title bonus",
			doc:    doc("Plugins", "", "", "/docs/a", ""),
			tokens: []string{"plugins"},
			want:   15,
		},
		{
			name:   "case insensitive fields",
			doc:    doc("SERVER Setup", "", "", "/docs/a", ""),
			tokens: []string{"server"},
			want:   10,
		},
		{
			name:   "tokens add up",
			doc:    doc("Server Setup", "Configure a server", "", "/docs/a", ""),
			tokens: []string{"server", "setup"},
			want:   10 + 5 + 10,
		},
		{
			name:   "repeated tokens count twice",
			doc:    doc("Server", "", "", "/docs/a", ""),
			tokens: []string{"server", "server"},
			want:   30,
		},
		{
			name:   "content only",
			doc:    doc("Other", "", "mentions mods", "/docs/a", ""),
			tokens: []string{"mods"},
			want:   1,
		},
		{
			name:   "no match",
			doc:    doc("Other", "Nothing", "Nothing", "/docs/a", ""),
			tokens: []string{"install"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ranking.Score(tt.doc, tt.tokens))
		})
	}
}

func TestRank_InstallExample(t *testing.T) {
	docs := []indexing.Document{
		doc("Community", "Join us", "Discord and forums", "/docs/community", "Community"),
		doc("Server Setup", "Run a dedicated server", "Install the server package first.", "/docs/servers/setup", "Servers"),
		doc("Installation Guide", "How to install the game", "Download the launcher.", "/docs/getting-started/install", "Getting Started"),
	}

	results := ranking.Rank(docs, "install", ranking.DefaultLimit)
	require.Len(t, results, 2)
	assert.Equal(t, "/docs/getting-started/install", results[0].Href)
	assert.Equal(t, "/docs/servers/setup", results[1].Href)
}

func TestRank_EmptyQuery(t *testing.T) {
	docs := []indexing.Document{doc("Install", "install", "install", "/docs/install", "")}

	for _, query := range []string{"", "   ", "\t\n"} {
		results := ranking.Rank(docs, query, 10)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestRank_NoDocuments(t *testing.T) {
	results := ranking.Rank(nil, "install", 10)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRank_Properties(t *testing.T) {
	var docs []indexing.Document
	for i := 0; i < 30; i++ {
		title := fmt.Sprintf("Page %02d", i)
		description := ""
		if i%3 == 0 {
			description = "server configuration"
		}
		excerpt := ""
		if i%2 == 0 {
			excerpt = "covers the server"
		}
		if i%5 == 0 {
			title = fmt.Sprintf("Server %02d", i)
		}
		docs = append(docs, doc(title, description, excerpt, fmt.Sprintf("/docs/p%02d", 29-i), "Guides"))
	}

	query := "Server"
	tokens := ranking.Tokenize(query)
	results := ranking.Rank(docs, query, ranking.DefaultLimit)

	t.Run("capped", func(t *testing.T) {
		assert.LessOrEqual(t, len(results), ranking.DefaultLimit)
		assert.Len(t, results, ranking.DefaultLimit)
	})

	t.Run("every result matches", func(t *testing.T) {
		for _, r := range results {
			assert.Greater(t, ranking.Score(r, tokens), 0, r.Href)
		}
	})

	t.Run("scores never increase and ties are ordered by href", func(t *testing.T) {
		for i := 1; i < len(results); i++ {
			prev, cur := ranking.Score(results[i-1], tokens), ranking.Score(results[i], tokens)
			assert.GreaterOrEqual(t, prev, cur)
			if prev == cur {
				assert.Less(t, results[i-1].Href, results[i].Href)
			}
		}
	})

	t.Run("nothing better was dropped", func(t *testing.T) {
		lowest := ranking.Score(results[len(results)-1], tokens)
		included := make(map[string]bool)
		for _, r := range results {
			included[r.Href] = true
		}
		for _, d := range docs {
			if !included[d.Href] {
				assert.LessOrEqual(t, ranking.Score(d, tokens), lowest, d.Href)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		reversed := make([]indexing.Document, len(docs))
		for i, d := range docs {
			reversed[len(docs)-1-i] = d
		}
		assert.Equal(t, hrefs(results), hrefs(ranking.Rank(reversed, query, ranking.DefaultLimit)))
	})
}

func TestRank_Limit(t *testing.T) {
	var docs []indexing.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, doc("Mods", "", "", fmt.Sprintf("/docs/m%d", i), ""))
	}

	assert.Len(t, ranking.Rank(docs, "mods", 3), 3)
	assert.Len(t, ranking.Rank(docs, "mods", 0), 5)
	assert.Equal(t, []string{"/docs/m0", "/docs/m1"}, hrefs(ranking.Rank(docs, "mods", 2)))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	docs := []indexing.Document{
		doc("b", "", "", "/docs/b", ""),
		doc("a", "", "", "/docs/a", ""),
	}
	before := hrefs(docs)

	ranking.Rank(docs, "a b", 10)
	assert.Equal(t, before, hrefs(docs))
}

func TestGroupByCategory(t *testing.T) {
	results := []indexing.Document{
		doc("A", "", "", "/docs/a", "Modding"),
		doc("B", "", "", "/docs/b", "Servers"),
		doc("C", "", "", "/docs/c", "Modding"),
		doc("D", "", "", "/docs/d", "docs"),
	}

	groups := ranking.GroupByCategory(results)
	require.Len(t, groups, 3)

	var names []string
	for _, g := range groups {
		names = append(names, g.Category)
	}
	assert.Equal(t, "Modding,Servers,docs", strings.Join(names, ","))
	assert.Equal(t, []string{"/docs/a", "/docs/c"}, hrefs(groups[0].Results))

	assert.Empty(t, ranking.GroupByCategory(nil))
	assert.NotNil(t, ranking.GroupByCategory(nil))
}
