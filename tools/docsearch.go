package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/ternarybob/arbor"

	"github.com/hytale-docs/docsearch/internal/catalog"
	"github.com/hytale-docs/docsearch/internal/common"
	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/ranking"
)

// maxFullTextResults bounds the max_results argument of the full-text tool
const maxFullTextResults = 20

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query   string `json:"query" jsonschema:"Search query, whitespace separated terms"`
	Locale  string `json:"locale,omitempty" jsonschema:"Documentation locale such as fr or en (optional, defaults to the server locale)"`
	Grouped bool   `json:"grouped,omitempty" jsonschema:"Also return the results grouped by category (optional)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results []indexing.Document `json:"results"`
	Groups  []ranking.Group     `json:"groups,omitempty"`
	Query   string              `json:"query"`
	Locale  string              `json:"locale"`
	Total   int                 `json:"total"`
}

// SearchFullTextInput defines input for search_documentation_fulltext tool
type SearchFullTextInput struct {
	Query      string `json:"query" jsonschema:"Full-text query"`
	Locale     string `json:"locale,omitempty" jsonschema:"Documentation locale (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, at most 20)"`
}

// FullTextResult is one scored full-text match
type FullTextResult struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Href        string  `json:"href"`
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
}

// SearchFullTextOutput defines output for search_documentation_fulltext tool
type SearchFullTextOutput struct {
	Results []FullTextResult `json:"results"`
	Query   string           `json:"query"`
	Locale  string           `json:"locale"`
	Total   int              `json:"total"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Locale string `json:"locale,omitempty" jsonschema:"Locale to re-index (optional, defaults to the server locale)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated          bool   `json:"updated"`
	SnapshotID       string `json:"snapshot_id"`
	Locale           string `json:"locale"`
	DocumentsIndexed int    `json:"documents_indexed"`
	Skipped          int    `json:"skipped"`
	Message          string `json:"message"`
}

// DocSearch implements the documentation tools on top of a catalog
type DocSearch struct {
	catalog *catalog.Service
	logger  arbor.ILogger
}

// NewDocSearch creates the tool handlers
func NewDocSearch(svc *catalog.Service, logger arbor.ILogger) *DocSearch {
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	return &DocSearch{catalog: svc, logger: logger}
}

// SearchDocumentation ranks documentation pages against the query
func (d *DocSearch) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	locale := d.catalog.ResolveLocale(input.Locale)
	output := SearchDocumentationOutput{
		Query:  input.Query,
		Locale: locale,
	}

	var err error
	if input.Grouped {
		output.Results, output.Groups, err = d.catalog.SearchGrouped(ctx, input.Query, locale)
	} else {
		output.Results, err = d.catalog.Search(ctx, input.Query, locale)
	}
	if err != nil {
		d.logger.Error().Err(err).Str("query", input.Query).Msg("search_documentation failed")
		return nil, SearchDocumentationOutput{}, fmt.Errorf("an error occurred while searching")
	}

	output.Total = len(output.Results)
	return nil, output, nil
}

// SearchDocumentationFullText runs a bleve full-text query
func (d *DocSearch) SearchDocumentationFullText(ctx context.Context, req *mcp.CallToolRequest, input SearchFullTextInput) (*mcp.CallToolResult, SearchFullTextOutput, error) {
	locale := d.catalog.ResolveLocale(input.Locale)

	maxResults := input.MaxResults
	if maxResults <= 0 || maxResults > maxFullTextResults {
		maxResults = ranking.DefaultLimit
	}

	hits, err := d.catalog.FullText(ctx, input.Query, locale, maxResults)
	if err != nil {
		d.logger.Error().Err(err).Str("query", input.Query).Msg("search_documentation_fulltext failed")
		return nil, SearchFullTextOutput{}, fmt.Errorf("an error occurred while searching")
	}

	results := make([]FullTextResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, FullTextResult{
			Title:       hit.Title,
			Description: hit.Description,
			Href:        hit.Href,
			Content:     hit.Excerpt,
			Category:    hit.Category,
			Score:       hit.Score,
		})
	}

	return nil, SearchFullTextOutput{
		Results: results,
		Query:   input.Query,
		Locale:  locale,
		Total:   len(results),
	}, nil
}

// RefreshDocumentationIndex re-indexes one locale
func (d *DocSearch) RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	res, err := d.catalog.Rebuild(ctx, input.Locale)
	if err != nil {
		d.logger.Error().Err(err).Str("locale", input.Locale).Msg("refresh_documentation_index failed")
		return nil, RefreshDocumentationIndexOutput{}, fmt.Errorf("refresh failed")
	}

	snap := res.Snapshot
	output := RefreshDocumentationIndexOutput{
		Updated:          res.Updated,
		SnapshotID:       snap.ID.String(),
		Locale:           snap.Locale,
		DocumentsIndexed: len(snap.Documents),
		Skipped:          len(snap.Skipped),
	}

	if res.Updated {
		output.Message = fmt.Sprintf("Documentation re-indexed, %d documents indexed (%d skipped)", output.DocumentsIndexed, output.Skipped)
	} else {
		output.Message = fmt.Sprintf("Documentation unchanged, %d documents indexed (%d skipped)", output.DocumentsIndexed, output.Skipped)
	}
	return nil, output, nil
}

// RegisterDocSearchTools registers documentation search tools
func RegisterDocSearchTools(server *mcp.Server, svc *catalog.Service, logger arbor.ILogger) int {
	d := NewDocSearch(svc, logger)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search the documentation pages of a locale. Returns up to 10 pages ranked by title, description and content matches.",
		},
		d.SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation_fulltext",
			Description: "Full-text search over the documentation of a locale with relevance scores.",
		},
		d.SearchDocumentationFullText,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Re-index the documentation of a locale and report whether its content changed.",
		},
		d.RefreshDocumentationIndex,
	)

	return 3
}
