package ledger

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/storage"
)

func newTestLedger() (*Ledger, *storage.MemoryStore) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := storage.NewMemoryStore()
	return New(store, logger), store
}

func TestToggleEpisode(t *testing.T) {
	led, _ := newTestLedger()

	if count := led.ToggleEpisode(7, 1, 3); count != 1 {
		t.Errorf("first toggle count = %d, want 1", count)
	}
	if count := led.ToggleEpisode(7, 1, 5); count != 2 {
		t.Errorf("second toggle count = %d, want 2", count)
	}
	if count := led.WatchedCount(7, 1); count != 2 {
		t.Errorf("WatchedCount = %d, want 2", count)
	}

	// Toggling the same episode again removes it
	if count := led.ToggleEpisode(7, 1, 3); count != 1 {
		t.Errorf("toggle off count = %d, want 1", count)
	}
}

// Toggling an episode twice restores the pre-toggle state
func TestToggleEpisodeTwiceRestoresState(t *testing.T) {
	led, _ := newTestLedger()

	led.ToggleEpisode(7, 1, 1)
	led.ToggleEpisode(7, 1, 2)
	before := led.SeasonEpisodes(7, 1)

	led.ToggleEpisode(7, 1, 3)
	led.ToggleEpisode(7, 1, 3)

	after := led.SeasonEpisodes(7, 1)
	if len(after) != len(before) {
		t.Fatalf("episodes after toggle pair = %v, want %v", after, before)
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("episodes after toggle pair = %v, want %v", after, before)
			break
		}
	}
}

func TestSeasonsAreIndependent(t *testing.T) {
	led, _ := newTestLedger()

	led.ToggleEpisode(7, 1, 1)
	led.ToggleEpisode(7, 2, 1)
	led.ToggleEpisode(8, 1, 1)

	if count := led.WatchedCount(7, 1); count != 1 {
		t.Errorf("WatchedCount(7, 1) = %d, want 1", count)
	}
	if count := led.WatchedCount(7, 2); count != 1 {
		t.Errorf("WatchedCount(7, 2) = %d, want 1", count)
	}
	if count := led.WatchedCount(8, 1); count != 1 {
		t.Errorf("WatchedCount(8, 1) = %d, want 1", count)
	}
}

func TestSetWatchedAndClear(t *testing.T) {
	led, _ := newTestLedger()

	ids := []string{
		storage.EpisodeID(1, 1),
		storage.EpisodeID(1, 2),
		storage.EpisodeID(1, 3),
	}
	if err := led.SetWatched(7, 1, ids); err != nil {
		t.Fatalf("SetWatched failed: %v", err)
	}
	if count := led.WatchedCount(7, 1); count != 3 {
		t.Errorf("WatchedCount = %d, want 3", count)
	}

	// Duplicate ids collapse into a set
	if err := led.SetWatched(7, 1, []string{"episode_1_1", "episode_1_1"}); err != nil {
		t.Fatalf("SetWatched failed: %v", err)
	}
	if count := led.WatchedCount(7, 1); count != 1 {
		t.Errorf("WatchedCount after duplicate set = %d, want 1", count)
	}

	if err := led.Clear(7, 1); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count := led.WatchedCount(7, 1); count != 0 {
		t.Errorf("WatchedCount after Clear = %d, want 0", count)
	}
}

func TestMalformedRecordReadsAsEmpty(t *testing.T) {
	led, store := newTestLedger()

	store.Set(storage.SeasonKey(7, 1), "{not json")

	if count := led.WatchedCount(7, 1); count != 0 {
		t.Errorf("WatchedCount over malformed record = %d, want 0", count)
	}

	// A toggle replaces the malformed record
	if count := led.ToggleEpisode(7, 1, 1); count != 1 {
		t.Errorf("toggle over malformed record count = %d, want 1", count)
	}
}
