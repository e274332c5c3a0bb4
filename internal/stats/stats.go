// Package stats derives summary counts from the watchlist and the
// episode ledger, including progress for series no longer listed.
package stats

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/classify"
	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/storage"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

// Engine computes read-only statistics over the core state
type Engine struct {
	watchlist  *watchlist.Store
	ledger     *ledger.Ledger
	aggregator *progress.Aggregator
	store      storage.Store
	logger     *logrus.Logger
}

// NewEngine creates a statistics engine
func NewEngine(wl *watchlist.Store, led *ledger.Ledger, aggregator *progress.Aggregator, store storage.Store, logger *logrus.Logger) *Engine {
	return &Engine{
		watchlist:  wl,
		ledger:     led,
		aggregator: aggregator,
		store:      store,
		logger:     logger,
	}
}

// Summarize tallies entries by status and counts favourites
func (e *Engine) Summarize() models.Summary {
	summary := models.Summary{ByStatus: make(map[models.WatchStatus]int)}

	for _, entry := range e.watchlist.Entries() {
		summary.ByStatus[entry.Status]++
		if entry.IsFavourite {
			summary.FavouritesCount++
		}
	}

	return summary
}

// DetailedSummarize partitions the watchlist into movie, series, anime
// movie and anime series buckets. Episode counts for series include
// orphaned ledger progress for series not in the watchlist at all; a
// seen-set keeps every series attributed exactly once.
func (e *Engine) DetailedSummarize(ctx context.Context) models.DetailedSummary {
	var summary models.DetailedSummary
	seenSeries := make(map[int]bool)

	for _, entry := range e.watchlist.Entries() {
		anime := classify.IsAnimeContent(classify.FromEntry(&entry))
		series := entry.IsSeries()

		bucket := pickBucket(&summary, anime, series)
		bucket.Total++

		if series {
			seenSeries[entry.ID] = true
		}

		if entry.Status != models.StatusCompleted {
			continue
		}
		bucket.Completed++

		if series {
			bucket.Episodes += e.watchedForSeries(ctx, &entry)
		} else if entry.EpisodesWatched > 0 {
			bucket.Episodes += entry.EpisodesWatched
		} else {
			bucket.Episodes++
		}
	}

	e.addOrphanedProgress(&summary, seenSeries)

	return summary
}

// watchedForSeries returns the stored watched count, falling back to
// the aggregator when the entry never recorded one
func (e *Engine) watchedForSeries(ctx context.Context, entry *models.WatchlistEntry) int {
	if entry.EpisodesWatched > 0 {
		return entry.EpisodesWatched
	}
	return e.aggregator.TotalWatched(ctx, entry.ID, entry.TotalEpisodes)
}

// addOrphanedProgress scans the durable store for ledger records whose
// series has no watchlist entry and attributes their episodes to the
// bucket matching the series' cached classification
func (e *Engine) addOrphanedProgress(summary *models.DetailedSummary, seenSeries map[int]bool) {
	orphanWatched := make(map[int]int)

	for _, key := range e.store.Keys() {
		seriesID, season, ok := storage.ParseSeasonKey(key)
		if !ok || seenSeries[seriesID] {
			continue
		}
		orphanWatched[seriesID] += e.ledger.WatchedCount(seriesID, season)
	}

	for seriesID, watched := range orphanWatched {
		if watched == 0 {
			continue
		}

		bucket := &summary.Series
		if e.cachedSeriesIsAnime(seriesID) {
			bucket = &summary.AnimeSeries
		}
		bucket.Episodes += watched

		e.logger.WithFields(logrus.Fields{
			"series_id": seriesID,
			"episodes":  watched,
		}).Debug("Counted orphaned ledger progress")
	}
}

// cachedSeriesIsAnime classifies an orphaned series from its cached
// metadata only; no catalog fetch is made for statistics
func (e *Engine) cachedSeriesIsAnime(seriesID int) bool {
	raw, ok := e.store.Get(storage.SeriesDataKey(seriesID))
	if !ok {
		return false
	}

	var meta models.SeriesMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return false
	}

	return classify.IsAnimeContent(classify.Input{Genres: meta.Genres})
}

func pickBucket(summary *models.DetailedSummary, anime, series bool) *models.CategorySummary {
	switch {
	case anime && series:
		return &summary.AnimeSeries
	case anime:
		return &summary.AnimeMovies
	case series:
		return &summary.Series
	default:
		return &summary.Movies
	}
}
