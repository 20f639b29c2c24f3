package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hytale-docs/docsearch/internal/catalog"
	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/metrics"
)

func page(title, description, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: %s\ndescription: %s\n---\n%s", title, description, body))}
}

func newTestServer(t *testing.T, builder catalog.Builder, strategy catalog.Strategy) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	svc := catalog.New(builder, catalog.Config{Strategy: strategy, Timeout: time.Second}, nil, m)
	t.Cleanup(func() { svc.Close() })
	return New("localhost:0", svc, m, nil), m
}

func contentBuilder() catalog.Builder {
	return indexing.NewIndexer(fstest.MapFS{
		"fr/getting-started/install.md": page("Guide d'installation", "Installer le jeu", "Téléchargez le lanceur."),
		"en/getting-started/install.md": page("Installation Guide", "How to install the game", "Download the launcher."),
		"en/servers/setup.md":           page("Server Setup", "Run a dedicated server", "Install the server package first."),
		"en/community.md":               page("Community", "Join us", "Discord and forums"),
	})
}

type failingBuilder struct{ err error }

func (b failingBuilder) Build(ctx context.Context, locale string) (indexing.Outcome, error) {
	return indexing.Outcome{}, b.err
}

type blockingBuilder struct{}

func (blockingBuilder) Build(ctx context.Context, locale string) (indexing.Outcome, error) {
	<-ctx.Done()
	return indexing.Outcome{}, ctx.Err()
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSearch(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyPerRequest)

	for _, path := range []string{"/search", "/api/search"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path+"?q=install&locale=en")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Results []map[string]any `json:"results"`
				Groups  []any            `json:"groups"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Results, 2)
			assert.Nil(t, body.Groups)

			first := body.Results[0]
			assert.Equal(t, map[string]any{
				"title":       "Installation Guide",
				"description": "How to install the game",
				"href":        "/docs/getting-started/install",
				"content":     "Download the launcher.",
				"category":    "Getting Started",
			}, first)
		})
	}
}

func TestSearch_DefaultLocaleIsFrench(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyPerRequest)

	rec := do(t, s, http.MethodGet, "/api/search?q=installation")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[SearchResponse](t, rec)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Guide d'installation", body.Results[0].Title)
	assert.Equal(t, "Pour Commencer", body.Results[0].Category)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s, _ := newTestServer(t, failingBuilder{err: errors.New("never called")}, catalog.StrategyPerRequest)

	for _, target := range []string{"/search", "/search?q=", "/api/search?q=%20%20", "/api/search/fulltext"} {
		rec := do(t, s, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.JSONEq(t, `{"results":[]}`, rec.Body.String(), target)
	}
}

func TestSearch_Grouped(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyPerRequest)

	rec := do(t, s, http.MethodGet, "/api/search?q=install&locale=en&grouped=true")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[SearchResponse](t, rec)
	assert.Len(t, body.Results, 2)
	require.Len(t, body.Groups, 2)
	assert.Equal(t, "Getting Started", body.Groups[0].Category)
	assert.Equal(t, "Servers", body.Groups[1].Category)
}

func TestSearch_Failure(t *testing.T) {
	s, _ := newTestServer(t, failingBuilder{err: errors.New("permission denied: /srv/content")}, catalog.StrategyPerRequest)

	rec := do(t, s, http.MethodGet, "/search?q=install")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An error occurred while searching"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "/srv/content")
}

func TestSearch_Timeout(t *testing.T) {
	m := metrics.New()
	svc := catalog.New(blockingBuilder{}, catalog.Config{Timeout: 10 * time.Millisecond}, nil, m)
	s := New("localhost:0", svc, m, nil)

	rec := do(t, s, http.MethodGet, "/api/search?q=install")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An error occurred while searching"}`, rec.Body.String())
}

func TestFullText(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyCached)

	rec := do(t, s, http.MethodGet, "/api/search/fulltext?q=launcher&locale=en&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[FullTextResponse](t, rec)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "/docs/getting-started/install", body.Results[0].Href)
	assert.Greater(t, body.Results[0].Score, 0.0)
	assert.Contains(t, rec.Body.String(), `"score"`)
}

func TestRefresh(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyCached)

	rec := do(t, s, http.MethodPost, "/api/index/refresh?locale=en")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[RefreshResponse](t, rec)
	assert.Equal(t, "en", body.Locale)
	assert.Equal(t, 3, body.Documents)
	assert.Equal(t, 0, body.Skipped)
	assert.True(t, body.Updated)
	assert.NotEmpty(t, body.SnapshotID)

	rec = do(t, s, http.MethodPost, "/api/index/refresh?locale=en")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[RefreshResponse](t, rec).Updated)

	rec = do(t, s, http.MethodGet, "/api/index/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRefresh_Failure(t *testing.T) {
	s, _ := newTestServer(t, failingBuilder{err: errors.New("disk offline")}, catalog.StrategyCached)

	rec := do(t, s, http.MethodPost, "/api/index/refresh")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An error occurred while refreshing the index"}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyPerRequest)

	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	do(t, s, http.MethodGet, "/search?q=install&locale=en")

	rec = do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "docsearch_searches_total"))
	assert.True(t, strings.Contains(rec.Body.String(), "docsearch_index_builds_total"))
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, contentBuilder(), catalog.StrategyPerRequest)

	req := httptest.NewRequest(http.MethodOptions, "/api/search?q=install", nil)
	req.Header.Set("Origin", "https://plugin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/search?q=install", nil)
	req.Header.Set("Origin", "https://plugin.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
