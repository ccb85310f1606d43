package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Minimal TMDB v3 client (search, discover, trending, find and detail
// endpoints we need).

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/"
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
	tmdbTimeout      = 15 * time.Second
)

var errNoAPIKey = errors.New("tmdb api key not configured")

type tmdbClient struct {
	apiKey string
	httpc  *http.Client
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: tmdbTimeout}
	}
	return &tmdbClient{apiKey: apiKey, httpc: httpc}
}

func (c *tmdbClient) enabled() bool { return c.apiKey != "" }

// doGET is the single remote-call boundary for TMDB. Every upstream or
// transport failure surfaces here as an error; callers log it and treat
// the result as "no data".
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, params url.Values, v any) error {
	if c.apiKey == "" {
		return errNoAPIKey
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")

	u := fmt.Sprintf("%s/%s?%s", tmdbBaseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb get %s failed: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// tmdbListResult is one entry of a search/discover/trending page.
type tmdbListResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"` // movies
	Name             string  `json:"name"`  // tv
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`   // movies
	FirstAirDate     string  `json:"first_air_date"` // tv
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int64 `json:"genre_ids"`
	VoteCount        int     `json:"vote_count"`
	VoteAverage      float64 `json:"vote_average"`
}

func (r tmdbListResult) displayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r tmdbListResult) releaseDate() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

type tmdbPage struct {
	Page    int              `json:"page"`
	Results []tmdbListResult `json:"results"`
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbExternalIDs struct {
	IMDBID string `json:"imdb_id"`
}

type tmdbCrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type tmdbCredits struct {
	Crew []tmdbCrewMember `json:"crew"`
}

// tmdbDetail is a full movie or tv record, with the optional blocks
// pulled in via append_to_response.
type tmdbDetail struct {
	ID               int64            `json:"id"`
	IMDBID           string           `json:"imdb_id"` // movies only
	Title            string           `json:"title"`
	Name             string           `json:"name"`
	Overview         string           `json:"overview"`
	PosterPath       string           `json:"poster_path"`
	BackdropPath     string           `json:"backdrop_path"`
	ReleaseDate      string           `json:"release_date"`
	FirstAirDate     string           `json:"first_air_date"`
	LastAirDate      string           `json:"last_air_date"`
	InProduction     bool             `json:"in_production"`
	Genres           []tmdbGenre      `json:"genres"`
	VoteAverage      float64          `json:"vote_average"`
	Runtime          int              `json:"runtime"`
	EpisodeRunTime   []int            `json:"episode_run_time"`
	Status           string           `json:"status"`
	OriginCountry    []string         `json:"origin_country"`
	NumberOfSeasons  int              `json:"number_of_seasons"`
	NumberOfEpisodes int              `json:"number_of_episodes"`
	ExternalIDs      *tmdbExternalIDs `json:"external_ids"`
	Credits          *tmdbCredits     `json:"credits"`
}

type tmdbFindResult struct {
	MovieResults []tmdbListResult `json:"movie_results"`
	TVResults    []tmdbListResult `json:"tv_results"`
}

// tmdbKind maps the addon media kind to TMDB's path segment.
func tmdbKind(mediaType string) string {
	if mediaType == "series" {
		return "tv"
	}
	return "movie"
}

func (c *tmdbClient) search(ctx context.Context, kind, query string) (*tmdbPage, error) {
	params := url.Values{}
	params.Set("query", query)
	var page tmdbPage
	if err := c.doGET(ctx, "search/"+tmdbKind(kind), params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *tmdbClient) discover(ctx context.Context, kind string, params url.Values) (*tmdbPage, error) {
	var page tmdbPage
	if err := c.doGET(ctx, "discover/"+tmdbKind(kind), params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *tmdbClient) trending(ctx context.Context, kind string, page int) (*tmdbPage, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", fmt.Sprintf("%d", page))
	}
	var out tmdbPage
	if err := c.doGET(ctx, fmt.Sprintf("trending/%s/week", tmdbKind(kind)), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *tmdbClient) find(ctx context.Context, imdbID string) (*tmdbFindResult, error) {
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	var out tmdbFindResult
	if err := c.doGET(ctx, "find/"+imdbID, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// externalIMDBID resolves a TMDB numeric id to its IMDB id.
func (c *tmdbClient) externalIMDBID(ctx context.Context, kind string, id int64) (string, error) {
	var out tmdbExternalIDs
	if err := c.doGET(ctx, fmt.Sprintf("%s/%d/external_ids", tmdbKind(kind), id), nil, &out); err != nil {
		return "", err
	}
	return out.IMDBID, nil
}

// details fetches the full record. Movies pull credits for the director
// field; series pull external_ids for the canonical id.
func (c *tmdbClient) details(ctx context.Context, kind string, id int64) (*tmdbDetail, error) {
	params := url.Values{}
	if tmdbKind(kind) == "movie" {
		params.Set("append_to_response", "credits")
	} else {
		params.Set("append_to_response", "external_ids")
	}
	var out tmdbDetail
	if err := c.doGET(ctx, fmt.Sprintf("%s/%d", tmdbKind(kind), id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// imageURL substitutes an image path into a fixed-size template preset.
func imageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + size + path
}
