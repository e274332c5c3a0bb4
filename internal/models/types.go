package models

// MediaType represents the normalized type of a watchlist entry. Anime
// collapses anime movies and anime series into a single type; the
// series-vs-movie distinction stays recoverable from the entry fields.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
	MediaTypeAnime MediaType = "anime"
)

// WatchStatus represents the watch status of a watchlist entry
type WatchStatus string

const (
	StatusPlanToWatch WatchStatus = "plan_to_watch"
	StatusWatching    WatchStatus = "watching"
	StatusCompleted   WatchStatus = "completed"
	StatusDropped     WatchStatus = "dropped"
)

// Category is the effective category of a title as decided by the classifier
type Category string

const (
	CategoryMovie Category = "movie"
	CategoryTV    Category = "tv"
	CategoryAnime Category = "anime"
)

// Genre is a catalog genre attached to titles and entries
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
