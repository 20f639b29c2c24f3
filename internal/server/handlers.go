package server

import (
	"net/http"
	"strconv"

	"github.com/hytale-docs/docsearch/internal/fulltext"
	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/ranking"
)

// Messages returned to clients; internal details stay in the logs
const (
	searchErrorMessage  = "An error occurred while searching"
	refreshErrorMessage = "An error occurred while refreshing the index"
)

// SearchResponse is the body of /search and /api/search
type SearchResponse struct {
	Results []indexing.Document `json:"results"`
	Groups  []ranking.Group     `json:"groups,omitempty"`
}

// FullTextResponse is the body of /api/search/fulltext
type FullTextResponse struct {
	Results []fulltext.Hit `json:"results"`
}

// RefreshResponse is the body of /api/index/refresh
type RefreshResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Locale     string `json:"locale"`
	Documents  int    `json:"documents"`
	Skipped    int    `json:"skipped"`
	Updated    bool   `json:"updated"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch serves GET /search?q=&locale=&grouped=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	locale := r.URL.Query().Get("locale")
	grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped"))

	if query == "" {
		WriteJSON(w, http.StatusOK, SearchResponse{Results: []indexing.Document{}})
		return
	}

	if grouped {
		results, groups, err := s.catalog.SearchGrouped(r.Context(), query, locale)
		if err != nil {
			s.searchFailed(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, SearchResponse{Results: results, Groups: groups})
		return
	}

	results, err := s.catalog.Search(r.Context(), query, locale)
	if err != nil {
		s.searchFailed(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// handleFullText serves GET /api/search/fulltext?q=&locale=&limit=
func (s *Server) handleFullText(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	locale := r.URL.Query().Get("locale")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if query == "" {
		WriteJSON(w, http.StatusOK, FullTextResponse{Results: []fulltext.Hit{}})
		return
	}

	maxResults := s.catalog.Config().MaxResults
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	hits, err := s.catalog.FullText(r.Context(), query, locale, limit)
	if err != nil {
		s.searchFailed(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, FullTextResponse{Results: hits})
}

// handleRefresh serves POST /api/index/refresh?locale=
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.catalog.Rebuild(r.Context(), r.URL.Query().Get("locale"))
	if err != nil {
		s.logger.Error().Err(err).Msg("Index refresh failed")
		WriteError(w, http.StatusInternalServerError, refreshErrorMessage)
		return
	}

	WriteJSON(w, http.StatusOK, RefreshResponse{
		SnapshotID: res.Snapshot.ID.String(),
		Locale:     res.Snapshot.Locale,
		Documents:  len(res.Snapshot.Documents),
		Skipped:    len(res.Snapshot.Skipped),
		Updated:    res.Updated,
	})
}

func (s *Server) searchFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().
		Err(err).
		Str("query", r.URL.Query().Get("q")).
		Msg("Search request failed")
	WriteError(w, http.StatusInternalServerError, searchErrorMessage)
}
