package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hytale-docs/docsearch/internal/catalog"
	"github.com/hytale-docs/docsearch/internal/indexing"
)

func page(title, description, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: %s\ndescription: %s\n---\n%s", title, description, body))}
}

func contentTree() fstest.MapFS {
	return fstest.MapFS{
		"fr/getting-started/install.md": page("Guide d'installation", "Installer le jeu", "Téléchargez le lanceur."),
		"en/getting-started/install.md": page("Installation Guide", "How to install the game", "Download the launcher."),
		"en/servers/setup.md":           page("Server Setup", "Run a dedicated server", "Install the server package first."),
		"en/modding/plugins/index.md":   page("Plugins", "Extend the server", "Plugins hook into server events."),
	}
}

func newDocSearch(t *testing.T, builder catalog.Builder) *DocSearch {
	t.Helper()
	svc := catalog.New(builder, catalog.Config{Strategy: catalog.StrategyCached, Timeout: time.Second}, nil, nil)
	t.Cleanup(func() { svc.Close() })
	return NewDocSearch(svc, nil)
}

type failingBuilder struct{}

func (failingBuilder) Build(ctx context.Context, locale string) (indexing.Outcome, error) {
	return indexing.Outcome{}, errors.New("open /srv/content: permission denied")
}

func TestSearchDocumentation(t *testing.T) {
	d := newDocSearch(t, indexing.NewIndexer(contentTree()))

	_, out, err := d.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "install", Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", out.Locale)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "/docs/getting-started/install", out.Results[0].Href)
	assert.Nil(t, out.Groups)
}

func TestSearchDocumentation_Grouped(t *testing.T) {
	d := newDocSearch(t, indexing.NewIndexer(contentTree()))

	_, out, err := d.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "server", Locale: "en", Grouped: true})
	require.NoError(t, err)
	require.Len(t, out.Groups, 2)
	assert.Equal(t, "Servers", out.Groups[0].Category)
	assert.Equal(t, "Modding", out.Groups[1].Category)
}

func TestSearchDocumentation_DefaultLocale(t *testing.T) {
	d := newDocSearch(t, indexing.NewIndexer(contentTree()))

	_, out, err := d.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "installation"})
	require.NoError(t, err)
	assert.Equal(t, "fr", out.Locale)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Guide d'installation", out.Results[0].Title)
}

func TestSearchDocumentation_EmptyQuery(t *testing.T) {
	d := newDocSearch(t, failingBuilder{})

	_, out, err := d.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "  "})
	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Equal(t, 0, out.Total)
}

func TestSearchDocumentation_HidesInternalErrors(t *testing.T) {
	d := newDocSearch(t, failingBuilder{})

	_, _, err := d.SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "install"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "/srv/content")
}

func TestSearchDocumentationFullText(t *testing.T) {
	d := newDocSearch(t, indexing.NewIndexer(contentTree()))

	_, out, err := d.SearchDocumentationFullText(context.Background(), nil, SearchFullTextInput{Query: "plugins", Locale: "en", MaxResults: 100})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "/docs/modding/plugins", out.Results[0].Href)
	assert.Equal(t, "Plugins hook into server events.", out.Results[0].Content)
	assert.Greater(t, out.Results[0].Score, 0.0)
	assert.Equal(t, len(out.Results), out.Total)
}

func TestRefreshDocumentationIndex(t *testing.T) {
	fsys := contentTree()
	d := newDocSearch(t, indexing.NewIndexer(fsys))
	ctx := context.Background()

	_, out, err := d.RefreshDocumentationIndex(ctx, nil, RefreshDocumentationIndexInput{Locale: "en"})
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.Equal(t, 3, out.DocumentsIndexed)
	assert.NotEmpty(t, out.SnapshotID)
	assert.Contains(t, out.Message, "re-indexed")

	_, out, err = d.RefreshDocumentationIndex(ctx, nil, RefreshDocumentationIndexInput{Locale: "en"})
	require.NoError(t, err)
	assert.False(t, out.Updated)
	assert.Contains(t, out.Message, "unchanged")

	fsys["en/broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Broken")}
	_, out, err = d.RefreshDocumentationIndex(ctx, nil, RefreshDocumentationIndexInput{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Skipped)
}

func TestRefreshDocumentationIndex_Failure(t *testing.T) {
	d := newDocSearch(t, failingBuilder{})

	_, _, err := d.RefreshDocumentationIndex(context.Background(), nil, RefreshDocumentationIndexInput{})
	assert.EqualError(t, err, "refresh failed")
}

func TestRegisterDocSearchTools_OverMCP(t *testing.T) {
	svc := catalog.New(indexing.NewIndexer(contentTree()), catalog.Config{}, nil, nil)
	defer svc.Close()

	server := mcp.NewServer(&mcp.Implementation{Name: "docsearch-test"}, nil)
	assert.Equal(t, 3, RegisterDocSearchTools(server, svc, nil))

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "docsearch-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_documentation", "search_documentation_fulltext", "refresh_documentation_index"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documentation",
		Arguments: map[string]any{"query": "install", "locale": "en"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)

	var out SearchDocumentationOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "Installation Guide", out.Results[0].Title)
}
