package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved key shapes. Every key the core writes is built here so the
// schema stays in one place and parsers cannot drift from builders.
//
//	watchlist                          the full entry collection
//	season_{seriesID}_{n}_watched      watched episode ids for one season
//	series_{seriesID}_data             cached season metadata
//	series_{seriesID}_completed        completion record

// WatchlistKey returns the key holding the entire watchlist collection
func WatchlistKey() string {
	return "watchlist"
}

// SeasonKey returns the ledger key for one (series, season) pair
func SeasonKey(seriesID, season int) string {
	return fmt.Sprintf("season_%d_%d_watched", seriesID, season)
}

// SeriesDataKey returns the season-metadata cache key for a series
func SeriesDataKey(seriesID int) string {
	return fmt.Sprintf("series_%d_data", seriesID)
}

// SeriesCompletedKey returns the completion-record key for a series
func SeriesCompletedKey(seriesID int) string {
	return fmt.Sprintf("series_%d_completed", seriesID)
}

// EpisodeID returns the identifier stored in a season's watched set
func EpisodeID(season, episode int) string {
	return fmt.Sprintf("episode_%d_%d", season, episode)
}

// ParseSeasonKey extracts (seriesID, season) from a ledger key. It
// reports false for any key that is not a season ledger key.
func ParseSeasonKey(key string) (seriesID, season int, ok bool) {
	rest, found := strings.CutPrefix(key, "season_")
	if !found {
		return 0, 0, false
	}
	rest, found = strings.CutSuffix(rest, "_watched")
	if !found {
		return 0, 0, false
	}

	parts := strings.Split(rest, "_")
	if len(parts) != 2 {
		return 0, 0, false
	}

	seriesID, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	season, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}

	return seriesID, season, true
}
