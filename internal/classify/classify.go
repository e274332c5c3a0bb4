// Package classify decides the effective category of a catalog title.
package classify

import (
	"strings"

	"github.com/amaumene/watchnarr/internal/models"
)

// AnimationGenreID is the catalog's reserved id for the Animation genre
const AnimationGenreID = 16

// Input is the narrow view of a title the classifier reads. Both
// models.CatalogItem and models.WatchlistEntry can be projected onto it.
type Input struct {
	MediaType string
	Title     string
	Name      string
	Genres    []models.Genre
	GenreIDs  []int
}

// FromItem projects a catalog item onto the classifier input
func FromItem(item *models.CatalogItem) Input {
	return Input{
		MediaType: item.MediaType,
		Title:     item.Title,
		Name:      item.Name,
		Genres:    item.Genres,
		GenreIDs:  item.GenreIDs,
	}
}

// FromEntry projects a stored entry onto the classifier input
func FromEntry(entry *models.WatchlistEntry) Input {
	return Input{
		MediaType: string(entry.MediaType),
		Title:     entry.Title,
		Genres:    entry.Genres,
		GenreIDs:  entry.GenreIDs,
	}
}

// Classify returns the effective category of a title. Anime signals win
// over the declared media type, so a title with an explicit movie/tv
// type but an Animation genre is still reclassified as anime.
func Classify(in Input) models.Category {
	if IsAnimeContent(in) {
		return models.CategoryAnime
	}

	switch in.MediaType {
	case "movie":
		return models.CategoryMovie
	case "tv":
		return models.CategoryTV
	}

	// Undeclared type: movies carry a title, series carry a name
	if in.Title != "" {
		return models.CategoryMovie
	}
	if in.Name != "" {
		return models.CategoryTV
	}
	return models.CategoryMovie
}

// IsAnimeContent reports whether a title carries any anime signal. It
// does not apply the movie/tv fallback, so callers can distinguish
// anime from non-anime without collapsing the category.
func IsAnimeContent(in Input) bool {
	if in.MediaType == string(models.MediaTypeAnime) {
		return true
	}

	for _, genre := range in.Genres {
		if strings.Contains(strings.ToLower(genre.Name), "animation") {
			return true
		}
	}

	for _, id := range in.GenreIDs {
		if id == AnimationGenreID {
			return true
		}
	}

	return false
}

// NormalizedMediaType maps a category onto the stored media type
func NormalizedMediaType(category models.Category) models.MediaType {
	switch category {
	case models.CategoryAnime:
		return models.MediaTypeAnime
	case models.CategoryTV:
		return models.MediaTypeTV
	default:
		return models.MediaTypeMovie
	}
}
