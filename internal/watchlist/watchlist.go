// Package watchlist holds the authoritative ordered collection of
// watchlist entries and its status state machine.
package watchlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/classify"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/storage"
)

// Store owns the in-memory watchlist collection. The collection is the
// authoritative cache of the durable store: read once at construction,
// written through on every mutation. A failed write is logged and the
// in-memory state kept, so callers must not assume a successful call
// implies successful persistence.
type Store struct {
	mu         sync.Mutex
	store      storage.Store
	aggregator *progress.Aggregator
	logger     *logrus.Logger
	entries    []models.WatchlistEntry
}

// NewStore creates the watchlist store and loads the persisted
// collection. A missing or malformed record loads as empty.
func NewStore(store storage.Store, aggregator *progress.Aggregator, logger *logrus.Logger) *Store {
	s := &Store{
		store:      store,
		aggregator: aggregator,
		logger:     logger,
	}
	s.load()
	return s
}

// Add classifies the item and inserts a new entry. Adding an item whose
// (id, mediaType) already exists updates the existing entry instead of
// duplicating it. Status defaults to plan_to_watch, episodesWatched
// to 1.
func (s *Store) Add(ctx context.Context, item *models.CatalogItem, status models.WatchStatus, episodesWatched int) models.WatchlistEntry {
	if status == "" {
		status = models.StatusPlanToWatch
	}

	category := classify.Classify(classify.FromItem(item))
	mediaType := classify.NormalizedMediaType(category)
	isSeries := itemIsSeries(item, category)

	s.mu.Lock()
	if idx := s.indexOf(item.ID, mediaType); idx >= 0 {
		s.mu.Unlock()
		entry, _ := s.Update(ctx, item.ID, mediaType, status, &episodesWatched)
		return entry
	}
	s.mu.Unlock()

	now := time.Now()
	entry := models.WatchlistEntry{
		ID:              item.ID,
		MediaType:       mediaType,
		Title:           item.DisplayTitle(),
		PosterPath:      item.PosterPath,
		BackdropPath:    item.BackdropPath,
		Overview:        item.Overview,
		VoteAverage:     item.VoteAverage,
		ReleaseDate:     item.ReleaseDate,
		FirstAirDate:    item.FirstAirDate,
		Genres:          item.Genres,
		GenreIDs:        item.GenreIDs,
		Status:          status,
		EpisodesWatched: episodesWatched,
		TotalEpisodes:   item.NumberOfEpisodes,
		AddedAt:         now,
		LastUpdated:     now,
	}

	if isSeries {
		// Populate the season metadata cache before any episode math
		if meta := s.aggregator.SeriesMetadata(ctx, item.ID); meta != nil && meta.NumberOfEpisodes > 0 {
			entry.TotalEpisodes = meta.NumberOfEpisodes
		}
		if status == models.StatusCompleted {
			entry.EpisodesWatched = s.aggregator.MarkCompleted(ctx, item.ID, entry.TotalEpisodes)
			entry.TotalEpisodes = entry.EpisodesWatched
		} else if entry.TotalEpisodes > 0 && entry.EpisodesWatched > entry.TotalEpisodes {
			entry.EpisodesWatched = entry.TotalEpisodes
		}
	} else {
		// Movies hold a single pseudo-episode
		if category == models.CategoryAnime && status == models.StatusCompleted {
			entry.EpisodesWatched = 1
		} else if entry.EpisodesWatched > 1 {
			entry.EpisodesWatched = 1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock in case a concurrent add won
	if idx := s.indexOf(entry.ID, entry.MediaType); idx >= 0 {
		s.entries[idx] = entry
	} else {
		s.entries = append(s.entries, entry)
	}
	s.commitLocked()

	s.logger.WithFields(logrus.Fields{
		"id":    entry.ID,
		"type":  entry.MediaType,
		"title": entry.Title,
	}).Info("Added watchlist entry")

	return entry
}

// Update mutates status (and optionally episodesWatched) in place.
// Transitioning a series to completed bulk-fills its ledger; completing
// an anime movie forces episodesWatched to 1. Watched counts are
// clamped like Add clamps them: at most 1 for movies, at most the
// known total for series.
func (s *Store) Update(ctx context.Context, id int, mediaType models.MediaType, status models.WatchStatus, episodesWatched *int) (models.WatchlistEntry, bool) {
	s.mu.Lock()
	idx := s.indexOf(id, mediaType)
	if idx < 0 {
		s.mu.Unlock()
		return models.WatchlistEntry{}, false
	}
	entry := s.entries[idx]
	s.mu.Unlock()

	entry.Status = status
	if episodesWatched != nil {
		entry.EpisodesWatched = *episodesWatched
	}

	if status == models.StatusCompleted {
		if entry.IsSeries() {
			entry.EpisodesWatched = s.aggregator.MarkCompleted(ctx, entry.ID, entry.TotalEpisodes)
			entry.TotalEpisodes = entry.EpisodesWatched
		} else if classify.IsAnimeContent(classify.FromEntry(&entry)) {
			entry.EpisodesWatched = 1
		} else if entry.EpisodesWatched > 1 {
			entry.EpisodesWatched = 1
		}
	} else if entry.IsSeries() {
		if entry.TotalEpisodes > 0 && entry.EpisodesWatched > entry.TotalEpisodes {
			entry.EpisodesWatched = entry.TotalEpisodes
		}
	} else if entry.EpisodesWatched > 1 {
		entry.EpisodesWatched = 1
	}
	entry.LastUpdated = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx = s.indexOf(id, mediaType); idx < 0 {
		return models.WatchlistEntry{}, false
	}
	s.entries[idx] = entry
	s.commitLocked()

	return entry, true
}

// Remove filters out the matching entry. The episode ledger is left
// untouched; orphaned progress intentionally survives.
func (s *Store) Remove(id int, mediaType models.MediaType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id, mediaType)
	if idx < 0 {
		return false
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.commitLocked()

	s.logger.WithFields(logrus.Fields{
		"id":   id,
		"type": mediaType,
	}).Info("Removed watchlist entry")

	return true
}

// ToggleFavourite flips the favourite flag, independent of status
func (s *Store) ToggleFavourite(id int, mediaType models.MediaType) (models.WatchlistEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id, mediaType)
	if idx < 0 {
		return models.WatchlistEntry{}, false
	}

	s.entries[idx].IsFavourite = !s.entries[idx].IsFavourite
	s.entries[idx].LastUpdated = time.Now()
	s.commitLocked()

	return s.entries[idx], true
}

// ToggleSeriesCompletion flips an entry between completed (with a full
// ledger bulk-fill) and plan_to_watch with a cleared ledger
func (s *Store) ToggleSeriesCompletion(ctx context.Context, id int, mediaType models.MediaType) (models.WatchlistEntry, bool) {
	s.mu.Lock()
	idx := s.indexOf(id, mediaType)
	if idx < 0 {
		s.mu.Unlock()
		return models.WatchlistEntry{}, false
	}
	entry := s.entries[idx]
	s.mu.Unlock()

	if entry.Status == models.StatusCompleted {
		entry.Status = models.StatusPlanToWatch
		entry.EpisodesWatched = 0
		if entry.IsSeries() {
			s.aggregator.MarkUnwatched(ctx, entry.ID)
		}
	} else {
		entry.Status = models.StatusCompleted
		if entry.IsSeries() {
			entry.EpisodesWatched = s.aggregator.MarkCompleted(ctx, entry.ID, entry.TotalEpisodes)
			entry.TotalEpisodes = entry.EpisodesWatched
		} else {
			entry.EpisodesWatched = 1
		}
	}
	entry.LastUpdated = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx = s.indexOf(id, mediaType); idx < 0 {
		return models.WatchlistEntry{}, false
	}
	s.entries[idx] = entry
	s.commitLocked()

	return entry, true
}

// Get returns the entry for (id, mediaType), if present
func (s *Store) Get(id int, mediaType models.MediaType) (models.WatchlistEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id, mediaType)
	if idx < 0 {
		return models.WatchlistEntry{}, false
	}
	return s.entries[idx], true
}

// IsInWatchlist reports whether (id, mediaType) has an entry
func (s *Store) IsInWatchlist(id int, mediaType models.MediaType) bool {
	_, ok := s.Get(id, mediaType)
	return ok
}

// GetStatus returns the status of (id, mediaType); the second return is
// false when no entry exists
func (s *Store) GetStatus(id int, mediaType models.MediaType) (models.WatchStatus, bool) {
	entry, ok := s.Get(id, mediaType)
	if !ok {
		return "", false
	}
	return entry.Status, true
}

// ByStatus returns all entries with the given status, in list order
func (s *Store) ByStatus(status models.WatchStatus) []models.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WatchlistEntry
	for _, entry := range s.entries {
		if entry.Status == status {
			out = append(out, entry)
		}
	}
	return out
}

// Favourites returns all favourite entries, in list order
func (s *Store) Favourites() []models.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WatchlistEntry
	for _, entry := range s.entries {
		if entry.IsFavourite {
			out = append(out, entry)
		}
	}
	return out
}

// Entries returns a copy of the full collection, in list order
func (s *Store) Entries() []models.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.WatchlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// indexOf must be called with the lock held
func (s *Store) indexOf(id int, mediaType models.MediaType) int {
	for i, entry := range s.entries {
		if entry.ID == id && entry.MediaType == mediaType {
			return i
		}
	}
	return -1
}

// commitLocked writes the collection through to the durable store.
// Failures are logged, not propagated; the in-memory state stands.
func (s *Store) commitLocked() {
	if err := s.persistLocked(); err != nil {
		s.logger.WithError(err).Error("Failed to persist watchlist")
	}
}

func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}
	return s.store.Set(storage.WatchlistKey(), string(data))
}

func (s *Store) load() {
	raw, ok := s.store.Get(storage.WatchlistKey())
	if !ok {
		return
	}

	var entries []models.WatchlistEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.WithError(err).Warn("Malformed watchlist record, starting empty")
		return
	}
	s.entries = entries
}

// itemIsSeries decides whether an add refers to episodic content. For
// anime the declared type and catalog naming convention carry the
// series-vs-movie signal.
func itemIsSeries(item *models.CatalogItem, category models.Category) bool {
	switch category {
	case models.CategoryTV:
		return true
	case models.CategoryAnime:
		if item.MediaType == "tv" || item.FirstAirDate != "" {
			return true
		}
		return item.Title == "" && item.Name != ""
	default:
		return false
	}
}
