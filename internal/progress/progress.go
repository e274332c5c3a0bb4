// Package progress reconciles per-season ledger counts with cached
// season metadata for whole-series watched totals.
package progress

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/storage"
)

// MetadataFetcher is the catalog collaborator providing season metadata
type MetadataFetcher interface {
	FetchSeriesMetadata(ctx context.Context, seriesID int) (*models.SeriesMetadata, error)
}

// Aggregator computes watched/total episode counts for a series. It owns
// the series metadata cache: an in-memory front with the durable store
// behind it, populated lazily from the catalog and invalidated only on
// request.
type Aggregator struct {
	store   storage.Store
	ledger  *ledger.Ledger
	catalog MetadataFetcher
	cache   *gocache.Cache
	logger  *logrus.Logger
}

// NewAggregator creates an aggregator. catalog may be nil, in which case
// only already-cached metadata is available.
func NewAggregator(store storage.Store, led *ledger.Ledger, catalog MetadataFetcher, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		store:   store,
		ledger:  led,
		catalog: catalog,
		cache:   gocache.New(gocache.NoExpiration, 0),
		logger:  logger,
	}
}

// SeriesMetadata returns the best-known season breakdown for a series,
// fetching from the catalog on first need. Returns nil when nothing is
// known and the catalog is unreachable.
func (a *Aggregator) SeriesMetadata(ctx context.Context, seriesID int) *models.SeriesMetadata {
	cacheKey := storage.SeriesDataKey(seriesID)

	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.(*models.SeriesMetadata)
	}

	if raw, ok := a.store.Get(cacheKey); ok {
		var meta models.SeriesMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			a.cache.Set(cacheKey, &meta, gocache.NoExpiration)
			return &meta
		}
		a.logger.WithField("series_id", seriesID).Warn("Malformed series metadata record, refetching")
	}

	if a.catalog == nil {
		return nil
	}

	meta, err := a.catalog.FetchSeriesMetadata(ctx, seriesID)
	if err != nil {
		a.logger.WithField("series_id", seriesID).WithError(err).Error("Failed to fetch series metadata")
		return nil
	}

	if data, err := json.Marshal(meta); err == nil {
		if err := a.store.Set(cacheKey, string(data)); err != nil {
			a.logger.WithField("series_id", seriesID).WithError(err).Error("Failed to persist series metadata")
		}
	}
	a.cache.Set(cacheKey, meta, gocache.NoExpiration)

	return meta
}

// Invalidate drops a series' cached metadata so the next need refetches
func (a *Aggregator) Invalidate(seriesID int) {
	cacheKey := storage.SeriesDataKey(seriesID)
	a.cache.Delete(cacheKey)
	if err := a.store.Remove(cacheKey); err != nil {
		a.logger.WithField("series_id", seriesID).WithError(err).Error("Failed to invalidate series metadata")
	}
}

// TotalWatched sums the ledger counts over every known season. Without
// season metadata it falls back to the caller's cached episode total
// (a single implicit season) and finally to 1.
func (a *Aggregator) TotalWatched(ctx context.Context, seriesID, cachedTotal int) int {
	meta := a.SeriesMetadata(ctx, seriesID)
	if meta != nil && len(meta.Seasons) > 0 {
		watched := 0
		for _, season := range meta.Seasons {
			watched += a.ledger.WatchedCount(seriesID, season.SeasonNumber)
		}
		return watched
	}

	if cachedTotal > 0 {
		return cachedTotal
	}
	return 1
}

// TotalEpisodes sums season episode counts with the same fallback chain
// as TotalWatched
func (a *Aggregator) TotalEpisodes(ctx context.Context, seriesID, cachedTotal int) int {
	meta := a.SeriesMetadata(ctx, seriesID)
	if meta != nil {
		total := 0
		for _, season := range meta.Seasons {
			total += season.EpisodeCount
		}
		if total > 0 {
			return total
		}
		if meta.NumberOfEpisodes > 0 {
			return meta.NumberOfEpisodes
		}
	}

	if cachedTotal > 0 {
		return cachedTotal
	}
	return 1
}

// DistributeWatched spreads a flat watched count across seasons in
// ascending order, filling each season up to its total until the count
// is exhausted
func (a *Aggregator) DistributeWatched(ctx context.Context, seriesID, watched, cachedTotal int) []models.SeasonAllocation {
	seasons := a.knownSeasons(ctx, seriesID, cachedTotal)

	allocations := make([]models.SeasonAllocation, 0, len(seasons))
	remaining := watched
	for _, season := range seasons {
		take := remaining
		if take > season.EpisodeCount {
			take = season.EpisodeCount
		}
		if take < 0 {
			take = 0
		}
		allocations = append(allocations, models.SeasonAllocation{
			Season:  season.SeasonNumber,
			Watched: take,
			Total:   season.EpisodeCount,
		})
		remaining -= take
	}

	return allocations
}

// SetWatched materializes ledger records from a flat watched count,
// writing a full run of synthetic episode ids per season. Returns the
// count actually recorded.
func (a *Aggregator) SetWatched(ctx context.Context, seriesID, watched, cachedTotal int) int {
	recorded := 0
	for _, alloc := range a.DistributeWatched(ctx, seriesID, watched, cachedTotal) {
		if alloc.Watched == 0 {
			if err := a.ledger.Clear(seriesID, alloc.Season); err != nil {
				a.logSeasonError(seriesID, alloc.Season, err)
			}
			continue
		}
		if err := a.ledger.SetWatched(seriesID, alloc.Season, syntheticEpisodes(alloc.Season, alloc.Watched)); err != nil {
			a.logSeasonError(seriesID, alloc.Season, err)
			continue
		}
		recorded += alloc.Watched
	}
	return recorded
}

// MarkCompleted fills every known season's ledger record and writes the
// completion record. Each season is one atomic store write, so a season
// is either fully populated or left untouched. Returns the episode
// total the series was completed at.
func (a *Aggregator) MarkCompleted(ctx context.Context, seriesID, cachedTotal int) int {
	total := a.TotalEpisodes(ctx, seriesID, cachedTotal)

	for _, season := range a.knownSeasons(ctx, seriesID, cachedTotal) {
		if season.EpisodeCount == 0 {
			continue
		}
		ids := syntheticEpisodes(season.SeasonNumber, season.EpisodeCount)
		if err := a.ledger.SetWatched(seriesID, season.SeasonNumber, ids); err != nil {
			a.logSeasonError(seriesID, season.SeasonNumber, err)
		}
	}

	record := models.CompletionRecord{TotalEpisodes: total, CompletedAt: time.Now()}
	if data, err := json.Marshal(record); err == nil {
		if err := a.store.Set(storage.SeriesCompletedKey(seriesID), string(data)); err != nil {
			a.logger.WithField("series_id", seriesID).WithError(err).Error("Failed to persist completion record")
		}
	}

	return total
}

// MarkUnwatched clears every ledger record of a series and removes the
// completion record
func (a *Aggregator) MarkUnwatched(ctx context.Context, seriesID int) {
	for _, key := range a.store.Keys() {
		id, season, ok := storage.ParseSeasonKey(key)
		if !ok || id != seriesID {
			continue
		}
		if err := a.ledger.Clear(seriesID, season); err != nil {
			a.logSeasonError(seriesID, season, err)
		}
	}

	if err := a.store.Remove(storage.SeriesCompletedKey(seriesID)); err != nil {
		a.logger.WithField("series_id", seriesID).WithError(err).Error("Failed to remove completion record")
	}
}

// knownSeasons returns the metadata season list, or a single implicit
// season covering the fallback episode total
func (a *Aggregator) knownSeasons(ctx context.Context, seriesID, cachedTotal int) []models.Season {
	meta := a.SeriesMetadata(ctx, seriesID)
	if meta != nil && len(meta.Seasons) > 0 {
		return meta.Seasons
	}

	total := cachedTotal
	if meta != nil && meta.NumberOfEpisodes > 0 {
		total = meta.NumberOfEpisodes
	}
	if total <= 0 {
		total = 1
	}
	return []models.Season{{SeasonNumber: 1, EpisodeCount: total}}
}

func (a *Aggregator) logSeasonError(seriesID, season int, err error) {
	a.logger.WithFields(logrus.Fields{
		"series_id": seriesID,
		"season":    season,
	}).WithError(err).Error("Failed to update season ledger")
}

func syntheticEpisodes(season, count int) []string {
	ids := make([]string, 0, count)
	for episode := 1; episode <= count; episode++ {
		ids = append(ids, storage.EpisodeID(season, episode))
	}
	return ids
}
