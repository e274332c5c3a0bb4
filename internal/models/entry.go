package models

import "time"

// WatchlistEntry is one row of the watchlist, unique per (ID, MediaType).
// The JSON shape doubles as the persisted and exported document format.
type WatchlistEntry struct {
	ID        int       `json:"id"`
	MediaType MediaType `json:"mediaType"`

	// Display metadata, copied from the catalog at add time and never
	// re-synced automatically
	Title        string  `json:"title"`
	PosterPath   string  `json:"posterPath,omitempty"`
	BackdropPath string  `json:"backdropPath,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	VoteAverage  float64 `json:"voteAverage,omitempty"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
	FirstAirDate string  `json:"firstAirDate,omitempty"`

	// Genre snapshot used for later re-classification
	Genres   []Genre `json:"genres,omitempty"`
	GenreIDs []int   `json:"genreIds,omitempty"`

	Status      WatchStatus `json:"status"`
	IsFavourite bool        `json:"isFavourite"`

	// EpisodesWatched is 0 or 1 for movies; for series it is the watched
	// count across all seasons, capped at the known total
	EpisodesWatched int `json:"episodesWatched"`
	TotalEpisodes   int `json:"totalEpisodes,omitempty"`

	AddedAt     time.Time `json:"addedAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IsSeries reports whether the entry refers to episodic content. Plain tv
// entries always do; anime entries do when they carry series signals
// (an air date or a known episode total without a movie release date).
func (e *WatchlistEntry) IsSeries() bool {
	switch e.MediaType {
	case MediaTypeTV:
		return true
	case MediaTypeAnime:
		if e.FirstAirDate != "" {
			return true
		}
		return e.ReleaseDate == "" && e.TotalEpisodes > 1
	default:
		return false
	}
}

// CatalogItem is a title as returned by the catalog, carrying only the
// fields the core reads. It is the classifier input and the Add input.
type CatalogItem struct {
	ID        int    `json:"id"`
	MediaType string `json:"mediaType,omitempty"`

	// The catalog uses Title for movies and Name for series
	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`

	PosterPath   string  `json:"posterPath,omitempty"`
	BackdropPath string  `json:"backdropPath,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	VoteAverage  float64 `json:"voteAverage,omitempty"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
	FirstAirDate string  `json:"firstAirDate,omitempty"`

	Genres   []Genre `json:"genres,omitempty"`
	GenreIDs []int   `json:"genreIds,omitempty"`

	NumberOfEpisodes int `json:"numberOfEpisodes,omitempty"`
}

// DisplayTitle returns the title under either catalog naming convention
func (i *CatalogItem) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Name
}

// Season describes one season of a series as known to the catalog
type Season struct {
	SeasonNumber int `json:"seasonNumber"`
	EpisodeCount int `json:"episodeCount"`
}

// SeriesMetadata is the cached per-series season breakdown. Genres are
// kept so orphaned ledger entries can still be classified.
type SeriesMetadata struct {
	Seasons          []Season `json:"seasons"`
	NumberOfEpisodes int      `json:"numberOfEpisodes"`
	Genres           []Genre  `json:"genres,omitempty"`
}

// CompletionRecord marks a series as fully watched at a point in time
type CompletionRecord struct {
	TotalEpisodes int       `json:"totalEpisodes"`
	CompletedAt   time.Time `json:"completedAt"`
}

// SeasonAllocation is one row of a watched-count distribution across seasons
type SeasonAllocation struct {
	Season  int `json:"season"`
	Watched int `json:"watched"`
	Total   int `json:"total"`
}

// Summary is the coarse watchlist tally
type Summary struct {
	ByStatus        map[WatchStatus]int `json:"byStatus"`
	FavouritesCount int                 `json:"favouritesCount"`
}

// CategorySummary is the per-bucket detail of a DetailedSummary
type CategorySummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Episodes  int `json:"episodes"`
}

// DetailedSummary partitions the watchlist into four buckets
type DetailedSummary struct {
	Movies      CategorySummary `json:"movies"`
	Series      CategorySummary `json:"series"`
	AnimeMovies CategorySummary `json:"animeMovies"`
	AnimeSeries CategorySummary `json:"animeSeries"`
}
