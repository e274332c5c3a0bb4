package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/amaumene/watchnarr/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	core := newTestCore(nil)
	ctx := context.Background()

	core.watchlist.Add(ctx, movieItem(1, "A"), models.StatusWatching, 1)
	core.watchlist.Add(ctx, movieItem(2, "B"), models.StatusCompleted, 1)
	core.watchlist.ToggleFavourite(2, models.MediaTypeMovie)

	data, err := core.watchlist.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	fresh := newTestCore(nil)
	count, err := fresh.watchlist.Import(data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Import = %d entries, want 2", count)
	}

	entries := fresh.watchlist.Entries()
	if entries[0].Title != "A" || entries[0].Status != models.StatusWatching {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if !entries[1].IsFavourite {
		t.Error("favourite flag lost in round trip")
	}
}

func TestExportEmptyCollection(t *testing.T) {
	core := newTestCore(nil)

	data, err := core.watchlist.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty export = %q, want []", data)
	}
}

// An import wholesale-replaces the collection and keeps whatever the
// document contains, duplicates included.
func TestImportReplacesAndKeepsDuplicates(t *testing.T) {
	core := newTestCore(nil)
	ctx := context.Background()

	core.watchlist.Add(ctx, movieItem(1, "Old"), models.StatusWatching, 1)

	doc := []models.WatchlistEntry{
		{ID: 5, MediaType: models.MediaTypeMovie, Title: "Dup", Status: models.StatusPlanToWatch},
		{ID: 5, MediaType: models.MediaTypeMovie, Title: "Dup", Status: models.StatusPlanToWatch},
	}
	data, _ := json.Marshal(doc)

	count, err := core.watchlist.Import(data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Import = %d entries, want 2", count)
	}

	entries := core.watchlist.Entries()
	if len(entries) != 2 {
		t.Fatalf("collection has %d entries after import, want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.Title == "Old" {
			t.Error("previous collection survived the import")
		}
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	core := newTestCore(nil)
	ctx := context.Background()

	core.watchlist.Add(ctx, movieItem(1, "Keep"), models.StatusWatching, 1)

	for _, doc := range []string{`{"id": 1}`, `"hello"`, `42`, ``, `   `} {
		if _, err := core.watchlist.Import([]byte(doc)); !errors.Is(err, ErrInvalidImport) {
			t.Errorf("Import(%q) error = %v, want ErrInvalidImport", doc, err)
		}
	}

	// A rejected import leaves the collection untouched
	entries := core.watchlist.Entries()
	if len(entries) != 1 || entries[0].Title != "Keep" {
		t.Errorf("collection mutated by rejected import: %+v", entries)
	}
}

func TestImportKeepsMalformedEntries(t *testing.T) {
	core := newTestCore(nil)

	doc := `[{"id": 1, "mediaType": "movie"}, {"id": "not-a-number"}]`
	count, err := core.watchlist.Import([]byte(doc))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Import = %d entries, want 2", count)
	}
}
