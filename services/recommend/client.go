// Package recommend wraps the Trakt recommendation provider. Only the
// public, unauthenticated surface is used; no user OAuth happens here.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"
	traktTimeout    = 15 * time.Second
)

// Client handles Trakt API interactions.
type Client struct {
	httpc    *http.Client
	clientID string
}

// IDs holds external identifiers for a media item.
type IDs struct {
	Trakt int64  `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int64  `json:"tmdb,omitempty"`
}

// Movie is a Trakt movie.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// TrendingMovie is one entry of the public trending list.
type TrendingMovie struct {
	Watchers int   `json:"watchers"`
	Movie    Movie `json:"movie"`
}

// NewClient creates a Trakt API client. An empty client id leaves it in
// degraded mode: every call reports not-enabled.
func NewClient(clientID string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: traktTimeout}
	}
	return &Client{httpc: httpc, clientID: clientID}
}

// Enabled reports whether the provider credential is configured.
func (c *Client) Enabled() bool { return c.clientID != "" }

// setTraktHeaders adds the required Trakt API headers to a request.
func (c *Client) setTraktHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
}

// TrendingMovies returns one page of Trakt's public trending movies.
func (c *Client) TrendingMovies(ctx context.Context, page, limit int) ([]TrendingMovie, error) {
	if c.clientID == "" {
		return nil, fmt.Errorf("trakt client id not configured")
	}

	u := fmt.Sprintf("%s/movies/trending?page=%s&limit=%s",
		traktAPIBaseURL, strconv.Itoa(page), strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("trakt trending failed: %s - %s", resp.Status, string(body))
	}

	var out []TrendingMovie
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode trending response: %w", err)
	}
	return out, nil
}
