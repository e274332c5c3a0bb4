package storage

import "testing"

func TestKeyShapes(t *testing.T) {
	if got := WatchlistKey(); got != "watchlist" {
		t.Errorf("WatchlistKey() = %q", got)
	}
	if got := SeasonKey(42, 3); got != "season_42_3_watched" {
		t.Errorf("SeasonKey(42, 3) = %q", got)
	}
	if got := SeriesDataKey(42); got != "series_42_data" {
		t.Errorf("SeriesDataKey(42) = %q", got)
	}
	if got := SeriesCompletedKey(42); got != "series_42_completed" {
		t.Errorf("SeriesCompletedKey(42) = %q", got)
	}
	if got := EpisodeID(2, 7); got != "episode_2_7" {
		t.Errorf("EpisodeID(2, 7) = %q", got)
	}
}

func TestParseSeasonKeyRoundTrip(t *testing.T) {
	cases := []struct {
		seriesID int
		season   int
	}{
		{1, 1},
		{42, 3},
		{99999, 0},
	}

	for _, tc := range cases {
		seriesID, season, ok := ParseSeasonKey(SeasonKey(tc.seriesID, tc.season))
		if !ok {
			t.Errorf("ParseSeasonKey(SeasonKey(%d, %d)) not ok", tc.seriesID, tc.season)
			continue
		}
		if seriesID != tc.seriesID || season != tc.season {
			t.Errorf("round trip (%d, %d) = (%d, %d)", tc.seriesID, tc.season, seriesID, season)
		}
	}
}

func TestParseSeasonKeyRejectsOtherShapes(t *testing.T) {
	keys := []string{
		"watchlist",
		"series_42_data",
		"series_42_completed",
		"season_42_watched",
		"season_x_1_watched",
		"season_42_1_watched_extra",
		"",
	}

	for _, key := range keys {
		if _, _, ok := ParseSeasonKey(key); ok {
			t.Errorf("ParseSeasonKey(%q) unexpectedly ok", key)
		}
	}
}
