package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

// EpisodesHandler reads and toggles per-season episode progress
type EpisodesHandler struct {
	ledger *ledger.Ledger
	logger *logrus.Logger
}

// NewEpisodesHandler creates a new episodes handler
func NewEpisodesHandler(led *ledger.Ledger, logger *logrus.Logger) *EpisodesHandler {
	return &EpisodesHandler{ledger: led, logger: logger}
}

// ServeHTTP handles season progress reads
func (h *EpisodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seriesID, err := strconv.Atoi(r.URL.Query().Get("seriesId"))
	if err != nil || seriesID <= 0 {
		writeError(w, http.StatusBadRequest, "seriesId is required")
		return
	}
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil || season < 0 {
		writeError(w, http.StatusBadRequest, "season is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seriesId": seriesID,
		"season":   season,
		"watched":  h.ledger.WatchedCount(seriesID, season),
		"episodes": h.ledger.SeasonEpisodes(seriesID, season),
	})
}

// ToggleEpisodeHandler flips a single episode's watched state
type ToggleEpisodeHandler struct {
	ledger *ledger.Ledger
	logger *logrus.Logger
}

// NewToggleEpisodeHandler creates a new episode toggle handler
func NewToggleEpisodeHandler(led *ledger.Ledger, logger *logrus.Logger) *ToggleEpisodeHandler {
	return &ToggleEpisodeHandler{ledger: led, logger: logger}
}

// ServeHTTP handles the episode toggle endpoint
func (h *ToggleEpisodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		SeriesID int `json:"seriesId"`
		Season   int `json:"season"`
		Episode  int `json:"episode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SeriesID <= 0 || body.Episode <= 0 {
		writeError(w, http.StatusBadRequest, "seriesId, season and episode are required")
		return
	}

	watched := h.ledger.ToggleEpisode(body.SeriesID, body.Season, body.Episode)

	h.logger.WithFields(logrus.Fields{
		"series_id": body.SeriesID,
		"season":    body.Season,
		"episode":   body.Episode,
	}).Debug("Toggled episode")

	writeJSON(w, http.StatusOK, map[string]int{
		"seriesId": body.SeriesID,
		"season":   body.Season,
		"watched":  watched,
	})
}

// ProgressHandler reports whole-series progress with the per-season
// distribution of the watched count
type ProgressHandler struct {
	watchlist  *watchlist.Store
	aggregator *progress.Aggregator
	logger     *logrus.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(wl *watchlist.Store, aggregator *progress.Aggregator, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{watchlist: wl, aggregator: aggregator, logger: logger}
}

// ServeHTTP handles the series progress endpoint
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seriesID, err := strconv.Atoi(r.URL.Query().Get("seriesId"))
	if err != nil || seriesID <= 0 {
		writeError(w, http.StatusBadRequest, "seriesId is required")
		return
	}

	// A listed entry contributes its cached total as the fallback
	cachedTotal := 0
	for _, mediaType := range []models.MediaType{models.MediaTypeTV, models.MediaTypeAnime} {
		if entry, ok := h.watchlist.Get(seriesID, mediaType); ok {
			cachedTotal = entry.TotalEpisodes
			break
		}
	}

	ctx := r.Context()
	watched := h.aggregator.TotalWatched(ctx, seriesID, cachedTotal)
	total := h.aggregator.TotalEpisodes(ctx, seriesID, cachedTotal)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seriesId":      seriesID,
		"totalWatched":  watched,
		"totalEpisodes": total,
		"seasons":       h.aggregator.DistributeWatched(ctx, seriesID, watched, cachedTotal),
	})
}
