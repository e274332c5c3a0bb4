package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/models"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/storage"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

type fixture struct {
	logger    *logrus.Logger
	ledger    *ledger.Ledger
	watchlist *watchlist.Store
	agg       *progress.Aggregator
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := storage.NewMemoryStore()
	led := ledger.New(store, logger)
	agg := progress.NewAggregator(store, led, nil, logger)

	return &fixture{
		logger:    logger,
		ledger:    led,
		watchlist: watchlist.NewStore(store, agg, logger),
		agg:       agg,
	}
}

func TestWatchlistHandlerAddAndList(t *testing.T) {
	f := newFixture()
	handler := NewWatchlistHandler(f.watchlist, nil, f.logger)

	body := `{"item": {"id": 42, "mediaType": "movie", "title": "Nightfall"}, "status": "plan_to_watch"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body)
	}

	var entry models.WatchlistEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decoding add response: %v", err)
	}
	if entry.ID != 42 || entry.Status != models.StatusPlanToWatch {
		t.Errorf("entry = %+v", entry)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/watchlist", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var entries []models.WatchlistEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Nightfall" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestWatchlistHandlerAddByIDWithoutCatalog(t *testing.T) {
	f := newFixture()
	handler := NewWatchlistHandler(f.watchlist, nil, f.logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist",
		strings.NewReader(`{"id": 42, "mediaType": "movie"}`)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without a catalog", rec.Code)
	}
}

func TestWatchlistHandlerRemove(t *testing.T) {
	f := newFixture()
	handler := NewWatchlistHandler(f.watchlist, nil, f.logger)

	f.watchlist.Add(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		&models.CatalogItem{ID: 42, MediaType: "movie", Title: "Nightfall"},
		models.StatusPlanToWatch, 1)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/watchlist?id=42&mediaType=movie", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("remove status = %d, body %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/watchlist?id=42&mediaType=movie", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/watchlist?id=abc&mediaType=movie", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed remove status = %d, want 400", rec.Code)
	}
}

func TestFavouriteHandler(t *testing.T) {
	f := newFixture()
	handler := NewFavouriteHandler(f.watchlist, f.logger)

	f.watchlist.Add(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		&models.CatalogItem{ID: 42, MediaType: "movie", Title: "Nightfall"},
		models.StatusPlanToWatch, 1)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist/favourite",
		strings.NewReader(`{"id": 42, "mediaType": "movie"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var entry models.WatchlistEntry
	json.Unmarshal(rec.Body.Bytes(), &entry)
	if !entry.IsFavourite {
		t.Error("entry not marked favourite")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist/favourite",
		strings.NewReader(`{"id": 9, "mediaType": "movie"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown entry status = %d, want 404", rec.Code)
	}
}

func TestToggleEpisodeHandler(t *testing.T) {
	f := newFixture()
	handler := NewToggleEpisodeHandler(f.ledger, f.logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/episodes/toggle",
		strings.NewReader(`{"seriesId": 7, "season": 1, "episode": 3}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp map[string]int
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["watched"] != 1 {
		t.Errorf("watched = %d, want 1", resp["watched"])
	}
	if count := f.ledger.WatchedCount(7, 1); count != 1 {
		t.Errorf("ledger count = %d, want 1", count)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/episodes/toggle",
		strings.NewReader(`{"seriesId": 0, "season": 1, "episode": 3}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid body status = %d, want 400", rec.Code)
	}
}

func TestEpisodesHandler(t *testing.T) {
	f := newFixture()
	handler := NewEpisodesHandler(f.ledger, f.logger)

	f.ledger.ToggleEpisode(7, 1, 1)
	f.ledger.ToggleEpisode(7, 1, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/episodes?seriesId=7&season=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Watched  int      `json:"watched"`
		Episodes []string `json:"episodes"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Watched != 2 || len(resp.Episodes) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProgressHandler(t *testing.T) {
	f := newFixture()
	handler := NewProgressHandler(f.watchlist, f.agg, f.logger)

	f.ledger.ToggleEpisode(7, 1, 1)
	f.ledger.ToggleEpisode(7, 1, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress?seriesId=7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing seriesId status = %d, want 400", rec.Code)
	}
}

func TestTransferHandler(t *testing.T) {
	f := newFixture()
	handler := NewTransferHandler(f.watchlist, f.logger)

	f.watchlist.Add(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		&models.CatalogItem{ID: 1, MediaType: "movie", Title: "A"},
		models.StatusWatching, 1)

	rec := httptest.NewRecorder()
	handler.Export(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "watchlist.json") {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec2 := httptest.NewRecorder()
	handler.Import(rec2, httptest.NewRequest(http.MethodPost, "/api/import", rec.Body))
	if rec2.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec2.Code, rec2.Body)
	}

	var resp map[string]int
	json.Unmarshal(rec2.Body.Bytes(), &resp)
	if resp["imported"] != 1 {
		t.Errorf("imported = %d, want 1", resp["imported"])
	}

	rec3 := httptest.NewRecorder()
	handler.Import(rec3, httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(`{"nope": 1}`)))
	if rec3.Code != http.StatusBadRequest {
		t.Errorf("non-array import status = %d, want 400", rec3.Code)
	}
}

func TestMethodChecks(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name    string
		handler http.Handler
		method  string
	}{
		{"health", NewHealthHandler(f.logger), http.MethodPost},
		{"episodes", NewEpisodesHandler(f.ledger, f.logger), http.MethodPost},
		{"toggle", NewToggleEpisodeHandler(f.ledger, f.logger), http.MethodGet},
		{"favourite", NewFavouriteHandler(f.watchlist, f.logger), http.MethodGet},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.handler.ServeHTTP(rec, httptest.NewRequest(tc.method, "/", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want 405", tc.name, rec.Code)
		}
	}
}
