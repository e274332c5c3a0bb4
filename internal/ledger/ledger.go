// Package ledger tracks watched episode ids per (series, season).
package ledger

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/storage"
)

// Ledger persists the set of watched episode identifiers for each
// (seriesID, season) pair. Records exist independently of the watchlist;
// orphaned progress is legal and survives entry removal.
type Ledger struct {
	mu     sync.Mutex
	store  storage.Store
	logger *logrus.Logger
}

// New creates a ledger backed by the given store
func New(store storage.Store, logger *logrus.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// ToggleEpisode flips membership of one episode in the season's watched
// set and returns the new cardinality. The read-modify-write runs under
// the ledger lock so rapid sequential toggles never lose updates.
// Episode numbers are not bounds-checked; the ledger does not know
// season totals, and the watched-count cap lives on the watchlist
// entry.
func (l *Ledger) ToggleEpisode(seriesID, season, episode int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.readSeason(seriesID, season)
	episodeID := storage.EpisodeID(season, episode)

	if _, watched := ids[episodeID]; watched {
		delete(ids, episodeID)
	} else {
		ids[episodeID] = struct{}{}
	}

	l.writeSeason(seriesID, season, ids)
	return len(ids)
}

// WatchedCount returns the current cardinality of a season's watched set
func (l *Ledger) WatchedCount(seriesID, season int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.readSeason(seriesID, season))
}

// SeasonEpisodes returns the watched episode ids of a season, sorted
func (l *Ledger) SeasonEpisodes(seriesID, season int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.readSeason(seriesID, season)
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SetWatched replaces a season's watched set wholesale. The write is a
// single store operation, so the season is either fully replaced or
// left untouched.
func (l *Ledger) SetWatched(seriesID, season int, episodeIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make(map[string]struct{}, len(episodeIDs))
	for _, id := range episodeIDs {
		ids[id] = struct{}{}
	}
	return l.persistSeason(seriesID, season, ids)
}

// Clear removes a season's ledger record entirely
func (l *Ledger) Clear(seriesID, season int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Remove(storage.SeasonKey(seriesID, season))
}

// readSeason loads a season's watched set. A missing or malformed
// record reads as empty.
func (l *Ledger) readSeason(seriesID, season int) map[string]struct{} {
	ids := make(map[string]struct{})

	raw, ok := l.store.Get(storage.SeasonKey(seriesID, season))
	if !ok {
		return ids
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		l.logger.WithFields(logrus.Fields{
			"series_id": seriesID,
			"season":    season,
		}).WithError(err).Warn("Malformed ledger record, treating as empty")
		return ids
	}

	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids
}

// writeSeason persists a season's set, logging instead of propagating
// failures so callers keep a consistent in-memory view
func (l *Ledger) writeSeason(seriesID, season int, ids map[string]struct{}) {
	if err := l.persistSeason(seriesID, season, ids); err != nil {
		l.logger.WithFields(logrus.Fields{
			"series_id": seriesID,
			"season":    season,
		}).WithError(err).Error("Failed to persist ledger record")
	}
}

func (l *Ledger) persistSeason(seriesID, season int, ids map[string]struct{}) error {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return l.store.Set(storage.SeasonKey(seriesID, season), string(data))
}
