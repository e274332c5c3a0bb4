package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/services/tmdb"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

// WatchlistHandler handles watchlist CRUD requests
type WatchlistHandler struct {
	watchlist *watchlist.Store
	catalog   *tmdb.Client
	logger    *logrus.Logger
}

// NewWatchlistHandler creates a new watchlist handler. catalog may be
// nil, in which case add-by-id lookups are unavailable.
func NewWatchlistHandler(wl *watchlist.Store, catalog *tmdb.Client, logger *logrus.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: wl,
		catalog:   catalog,
		logger:    logger,
	}
}

// addRequest is the POST body. Either a full catalog item or a bare
// (id, mediaType) pair resolved through the catalog.
type addRequest struct {
	Item            *models.CatalogItem `json:"item,omitempty"`
	ID              int                 `json:"id,omitempty"`
	MediaType       string              `json:"mediaType,omitempty"`
	Status          models.WatchStatus  `json:"status,omitempty"`
	EpisodesWatched *int                `json:"episodesWatched,omitempty"`
}

type updateRequest struct {
	ID              int                `json:"id"`
	MediaType       models.MediaType   `json:"mediaType"`
	Status          models.WatchStatus `json:"status"`
	EpisodesWatched *int               `json:"episodesWatched,omitempty"`
}

// ServeHTTP dispatches list/add/update/remove on the watchlist path
func (h *WatchlistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WatchlistHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("favourites") == "true" {
		writeJSON(w, http.StatusOK, h.watchlist.Favourites())
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		writeJSON(w, http.StatusOK, h.watchlist.ByStatus(models.WatchStatus(status)))
		return
	}

	writeJSON(w, http.StatusOK, h.watchlist.Entries())
}

func (h *WatchlistHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := req.Item
	if item == nil {
		if req.ID <= 0 {
			writeError(w, http.StatusBadRequest, "item or id is required")
			return
		}
		if h.catalog == nil {
			writeError(w, http.StatusServiceUnavailable, "catalog lookups unavailable")
			return
		}

		var err error
		if req.MediaType == "movie" {
			item, err = h.catalog.GetMovieDetails(r.Context(), req.ID)
		} else {
			item, err = h.catalog.GetTVDetails(r.Context(), req.ID)
		}
		if err != nil {
			h.logger.WithField("id", req.ID).WithError(err).Error("Catalog lookup failed")
			writeError(w, http.StatusBadGateway, "catalog lookup failed")
			return
		}
	}

	episodesWatched := 1
	if req.EpisodesWatched != nil {
		episodesWatched = *req.EpisodesWatched
	}

	entry := h.watchlist.Add(r.Context(), item, req.Status, episodesWatched)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *WatchlistHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, ok := h.watchlist.Update(r.Context(), req.ID, req.MediaType, req.Status, req.EpisodesWatched)
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *WatchlistHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := identity(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id and mediaType are required")
		return
	}

	if !h.watchlist.Remove(id, mediaType) {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// FavouriteHandler toggles the favourite flag of an entry
type FavouriteHandler struct {
	watchlist *watchlist.Store
	logger    *logrus.Logger
}

// NewFavouriteHandler creates a new favourite toggle handler
func NewFavouriteHandler(wl *watchlist.Store, logger *logrus.Logger) *FavouriteHandler {
	return &FavouriteHandler{watchlist: wl, logger: logger}
}

// ServeHTTP handles the favourite toggle endpoint
func (h *FavouriteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, mediaType, ok := decodeIdentityBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id and mediaType are required")
		return
	}

	entry, found := h.watchlist.ToggleFavourite(id, mediaType)
	if !found {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// CompletionHandler toggles series completion for an entry
type CompletionHandler struct {
	watchlist *watchlist.Store
	logger    *logrus.Logger
}

// NewCompletionHandler creates a new completion toggle handler
func NewCompletionHandler(wl *watchlist.Store, logger *logrus.Logger) *CompletionHandler {
	return &CompletionHandler{watchlist: wl, logger: logger}
}

// ServeHTTP handles the completion toggle endpoint
func (h *CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, mediaType, ok := decodeIdentityBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id and mediaType are required")
		return
	}

	entry, found := h.watchlist.ToggleSeriesCompletion(r.Context(), id, mediaType)
	if !found {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// decodeIdentityBody reads the (id, mediaType) pair from a JSON body
func decodeIdentityBody(r *http.Request) (int, models.MediaType, bool) {
	var body struct {
		ID        int              `json:"id"`
		MediaType models.MediaType `json:"mediaType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID <= 0 {
		return 0, "", false
	}

	switch body.MediaType {
	case models.MediaTypeMovie, models.MediaTypeTV, models.MediaTypeAnime:
		return body.ID, body.MediaType, true
	}
	return 0, "", false
}
