package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/classify"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/services/tmdb"
)

// SearchHandler proxies catalog search, annotating each result with its
// effective category
type SearchHandler struct {
	catalog *tmdb.Client
	logger  *logrus.Logger
}

// NewSearchHandler creates a new search handler. catalog may be nil.
func NewSearchHandler(catalog *tmdb.Client, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{catalog: catalog, logger: logger}
}

type searchResult struct {
	models.CatalogItem
	Category models.Category `json:"category"`
}

// ServeHTTP handles the search endpoint
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	if h.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog lookups unavailable")
		return
	}

	items, err := h.catalog.SearchTitles(r.Context(), query)
	if err != nil {
		h.logger.WithField("query", query).WithError(err).Error("Search failed")
		writeError(w, http.StatusBadGateway, "catalog search failed")
		return
	}

	results := make([]searchResult, 0, len(items))
	for _, item := range items {
		results = append(results, searchResult{
			CatalogItem: item,
			Category:    classify.Classify(classify.FromItem(&item)),
		})
	}

	writeJSON(w, http.StatusOK, results)
}
