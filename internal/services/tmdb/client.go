// Package tmdb is the catalog collaborator providing title and season
// metadata.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/config"
	"github.com/amaumene/watchnarr/internal/models"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// maxRetries bounds the exponential backoff on transient failures
const maxRetries = 3

// Client handles communication with the TMDB API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDB API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// doRequest performs a GET request against the API, retrying transient
// failures with exponential backoff
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	c.logger.WithField("url", c.baseURL+path).Debug("Making TMDB API request")

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("API request failed with status %d", resp.StatusCode))
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}

// FetchSeriesMetadata retrieves the season breakdown for a series.
// Season 0 specials are excluded from the breakdown.
func (c *Client) FetchSeriesMetadata(ctx context.Context, seriesID int) (*models.SeriesMetadata, error) {
	var details struct {
		NumberOfEpisodes int            `json:"number_of_episodes"`
		Genres           []models.Genre `json:"genres"`
		Seasons          []struct {
			SeasonNumber int `json:"season_number"`
			EpisodeCount int `json:"episode_count"`
		} `json:"seasons"`
	}

	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", seriesID), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get series details: %w", err)
	}

	meta := &models.SeriesMetadata{
		NumberOfEpisodes: details.NumberOfEpisodes,
		Genres:           details.Genres,
	}
	for _, season := range details.Seasons {
		if season.SeasonNumber == 0 {
			continue
		}
		meta.Seasons = append(meta.Seasons, models.Season{
			SeasonNumber: season.SeasonNumber,
			EpisodeCount: season.EpisodeCount,
		})
	}

	return meta, nil
}

// GetMovieDetails retrieves one movie as a catalog item
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*models.CatalogItem, error) {
	var details struct {
		ID           int            `json:"id"`
		Title        string         `json:"title"`
		PosterPath   string         `json:"poster_path"`
		BackdropPath string         `json:"backdrop_path"`
		Overview     string         `json:"overview"`
		VoteAverage  float64        `json:"vote_average"`
		ReleaseDate  string         `json:"release_date"`
		Genres       []models.Genre `json:"genres"`
	}

	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get movie details: %w", err)
	}

	return &models.CatalogItem{
		ID:           details.ID,
		MediaType:    "movie",
		Title:        details.Title,
		PosterPath:   details.PosterPath,
		BackdropPath: details.BackdropPath,
		Overview:     details.Overview,
		VoteAverage:  details.VoteAverage,
		ReleaseDate:  details.ReleaseDate,
		Genres:       details.Genres,
	}, nil
}

// GetTVDetails retrieves one series as a catalog item
func (c *Client) GetTVDetails(ctx context.Context, id int) (*models.CatalogItem, error) {
	var details struct {
		ID               int            `json:"id"`
		Name             string         `json:"name"`
		PosterPath       string         `json:"poster_path"`
		BackdropPath     string         `json:"backdrop_path"`
		Overview         string         `json:"overview"`
		VoteAverage      float64        `json:"vote_average"`
		FirstAirDate     string         `json:"first_air_date"`
		NumberOfEpisodes int            `json:"number_of_episodes"`
		Genres           []models.Genre `json:"genres"`
	}

	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", id), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get tv details: %w", err)
	}

	return &models.CatalogItem{
		ID:               details.ID,
		MediaType:        "tv",
		Name:             details.Name,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		Overview:         details.Overview,
		VoteAverage:      details.VoteAverage,
		FirstAirDate:     details.FirstAirDate,
		NumberOfEpisodes: details.NumberOfEpisodes,
		Genres:           details.Genres,
	}, nil
}

// SearchTitles runs a multi search and maps results to catalog items.
// Non-title results (people) are skipped.
func (c *Client) SearchTitles(ctx context.Context, query string) ([]models.CatalogItem, error) {
	var response struct {
		Results []struct {
			ID           int     `json:"id"`
			MediaType    string  `json:"media_type"`
			Title        string  `json:"title"`
			Name         string  `json:"name"`
			PosterPath   string  `json:"poster_path"`
			BackdropPath string  `json:"backdrop_path"`
			Overview     string  `json:"overview"`
			VoteAverage  float64 `json:"vote_average"`
			ReleaseDate  string  `json:"release_date"`
			FirstAirDate string  `json:"first_air_date"`
			GenreIDs     []int   `json:"genre_ids"`
		} `json:"results"`
	}

	params := url.Values{}
	params.Set("query", query)

	if err := c.doRequest(ctx, "/search/multi", params, &response); err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}

	var items []models.CatalogItem
	for _, result := range response.Results {
		if result.MediaType != "movie" && result.MediaType != "tv" {
			continue
		}
		items = append(items, models.CatalogItem{
			ID:           result.ID,
			MediaType:    result.MediaType,
			Title:        result.Title,
			Name:         result.Name,
			PosterPath:   result.PosterPath,
			BackdropPath: result.BackdropPath,
			Overview:     result.Overview,
			VoteAverage:  result.VoteAverage,
			ReleaseDate:  result.ReleaseDate,
			FirstAirDate: result.FirstAirDate,
			GenreIDs:     result.GenreIDs,
		})
	}

	return items, nil
}
