// Package metadata resolves loosely-structured titles and external ids
// to canonical records via the TMDB provider.
package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"streamdex/models"
)

// IDKind classifies an external request id.
type IDKind string

const (
	// IDKindCanonical is the cross-service IMDB id form ("tt...").
	IDKindCanonical IDKind = "canonical"
	// IDKindProvider is TMDB's own numeric id.
	IDKindProvider IDKind = "provider"
)

// ClassifyRequestID splits a request id into its kind and lookup value.
// "tt..." ids are canonical; "tmdb:<n>" ids are provider ids. Anything
// else is unresolvable and the boundary layer turns it into not-found.
func ClassifyRequestID(id string) (IDKind, string, bool) {
	switch {
	case strings.HasPrefix(id, "tt"):
		return IDKindCanonical, id, true
	case strings.HasPrefix(id, "tmdb:"):
		value := strings.TrimPrefix(id, "tmdb:")
		if value == "" {
			return "", "", false
		}
		return IDKindProvider, value, true
	default:
		return "", "", false
	}
}

// Record is a resolved catalog entry: the wire Meta plus the provider
// fields the pipelines filter on.
type Record struct {
	models.Meta
	TMDBID           int64
	GenreIDs         []int64
	OriginalLanguage string
	VoteCount        int
}

// DiscoverQuery is a provider discovery request. Zero values are
// omitted from the upstream call.
type DiscoverQuery struct {
	SortBy           string
	Genres           []int64
	Year             string
	MinVoteCount     int
	OriginalLanguage string
	ReleasedSince    time.Time
	Page             int
}

// Resolver maps titles and ids to canonical records.
type Resolver struct {
	tmdb *tmdbClient

	// bestMatch picks the winning search result. The default takes the
	// provider's first hit; it is a field so a scored matcher can
	// replace it without touching the pipelines.
	bestMatch func([]tmdbListResult) *tmdbListResult
}

// NewResolver constructs a resolver. An empty API key leaves the
// resolver in degraded mode: every lookup returns nil.
func NewResolver(apiKey string, httpc *http.Client) *Resolver {
	return &Resolver{
		tmdb:      newTMDBClient(apiKey, httpc),
		bestMatch: firstResult,
	}
}

// firstResult takes the provider's top search hit.
func firstResult(results []tmdbListResult) *tmdbListResult {
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// Enabled reports whether the provider credential is configured.
func (r *Resolver) Enabled() bool { return r.tmdb.enabled() }

// ResolveByTitle resolves a free-text show or movie name to a canonical
// record. The search result alone is not enough: search pages do not
// carry IMDB ids, so a follow-up external-id lookup runs per hit, and a
// hit without a resolvable canonical id is discarded. Every failure
// mode returns nil; callers treat nil as "unavailable".
func (r *Resolver) ResolveByTitle(ctx context.Context, name, mediaType string) *Record {
	query := strings.TrimSpace(unidecode.Unidecode(name))
	if query == "" || !r.tmdb.enabled() {
		return nil
	}

	page, err := r.tmdb.search(ctx, mediaType, query)
	if err != nil {
		log.Printf("[tmdb] search %q failed: %v", query, err)
		return nil
	}
	hit := r.bestMatch(page.Results)
	if hit == nil {
		return nil
	}

	imdbID, err := r.tmdb.externalIMDBID(ctx, mediaType, hit.ID)
	if err != nil {
		log.Printf("[tmdb] external ids for %d failed: %v", hit.ID, err)
		return nil
	}
	if !strings.HasPrefix(imdbID, "tt") {
		return nil
	}

	rec := summaryFromResult(mediaType, *hit)
	rec.ID = imdbID
	return rec
}

// ResolveByID resolves an external id to a full detail record.
// Canonical ids go through the provider's reverse lookup first to obtain
// the numeric id; provider ids fetch directly. Nil means unavailable,
// never an exceptional condition.
func (r *Resolver) ResolveByID(ctx context.Context, idKind IDKind, idValue, mediaType string) *models.Meta {
	if !r.tmdb.enabled() {
		return nil
	}

	var tmdbID int64
	switch idKind {
	case IDKindCanonical:
		found, err := r.tmdb.find(ctx, idValue)
		if err != nil {
			log.Printf("[tmdb] find %s failed: %v", idValue, err)
			return nil
		}
		results := found.MovieResults
		if mediaType == models.MediaTypeSeries {
			results = found.TVResults
		}
		if len(results) == 0 {
			return nil
		}
		tmdbID = results[0].ID
	case IDKindProvider:
		parsed, err := strconv.ParseInt(idValue, 10, 64)
		if err != nil || parsed <= 0 {
			return nil
		}
		tmdbID = parsed
	default:
		return nil
	}

	detail, err := r.tmdb.details(ctx, mediaType, tmdbID)
	if err != nil {
		log.Printf("[tmdb] details %s/%d failed: %v", mediaType, tmdbID, err)
		return nil
	}
	if mediaType == models.MediaTypeSeries {
		return seriesMeta(detail)
	}
	return movieMeta(detail)
}

// Discover runs a provider discovery query and returns summary records.
// An empty slice plus logging is the only failure surface.
func (r *Resolver) Discover(ctx context.Context, mediaType string, q DiscoverQuery) []Record {
	if !r.tmdb.enabled() {
		log.Printf("[tmdb] discover skipped: api key not configured")
		return nil
	}

	params := url.Values{}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if len(q.Genres) > 0 {
		parts := make([]string, len(q.Genres))
		for i, id := range q.Genres {
			parts[i] = strconv.FormatInt(id, 10)
		}
		params.Set("with_genres", strings.Join(parts, ","))
	}
	if q.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	}
	if q.OriginalLanguage != "" {
		params.Set("with_original_language", q.OriginalLanguage)
	}
	if !q.ReleasedSince.IsZero() {
		params.Set("primary_release_date.gte", q.ReleasedSince.Format("2006-01-02"))
	}
	if q.Year != "" {
		if mediaType == models.MediaTypeSeries {
			params.Set("first_air_date_year", q.Year)
		} else {
			params.Set("primary_release_year", q.Year)
		}
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	page, err := r.tmdb.discover(ctx, mediaType, params)
	if err != nil {
		log.Printf("[tmdb] discover %s failed: %v", mediaType, err)
		return nil
	}
	return summariesFromPage(mediaType, page)
}

// Trending returns one page of the provider's weekly trending list as
// summary records.
func (r *Resolver) Trending(ctx context.Context, mediaType string, page int) []Record {
	if !r.tmdb.enabled() {
		log.Printf("[tmdb] trending skipped: api key not configured")
		return nil
	}
	out, err := r.tmdb.trending(ctx, mediaType, page)
	if err != nil {
		log.Printf("[tmdb] trending %s failed: %v", mediaType, err)
		return nil
	}
	return summariesFromPage(mediaType, out)
}

func summariesFromPage(mediaType string, page *tmdbPage) []Record {
	records := make([]Record, 0, len(page.Results))
	for _, res := range page.Results {
		records = append(records, *summaryFromResult(mediaType, res))
	}
	return records
}

// summaryFromResult builds a summary record from a list entry. List
// entries never carry IMDB ids, so the canonical id falls back to the
// provider form unless the caller resolves one.
func summaryFromResult(mediaType string, res tmdbListResult) *Record {
	return &Record{
		Meta: models.Meta{
			ID:          canonicalID("", res.ID),
			Type:        mediaType,
			Name:        res.displayName(),
			Poster:      imageURL(res.PosterPath, tmdbPosterSize),
			ReleaseInfo: yearOf(res.releaseDate()),
			Genres:      genreNamesForIDs(mediaType, res.GenreIDs),
		},
		TMDBID:           res.ID,
		GenreIDs:         res.GenreIDs,
		OriginalLanguage: res.OriginalLanguage,
		VoteCount:        res.VoteCount,
	}
}

func movieMeta(d *tmdbDetail) *models.Meta {
	meta := &models.Meta{
		ID:          canonicalID(d.IMDBID, d.ID),
		Type:        models.MediaTypeMovie,
		Name:        d.Title,
		Poster:      imageURL(d.PosterPath, tmdbPosterSize),
		PosterShape: "regular",
		Background:  imageURL(d.BackdropPath, tmdbBackdropSize),
		Description: d.Overview,
		ReleaseInfo: yearOf(d.ReleaseDate),
		Genres:      genreNames(d.Genres),
		IMDBRating:  formatRating(d.VoteAverage),
	}
	if d.Runtime > 0 {
		meta.Runtime = fmt.Sprintf("%d min", d.Runtime)
	}
	if d.Credits != nil {
		var directors []string
		for _, crew := range d.Credits.Crew {
			if crew.Job == "Director" {
				directors = append(directors, crew.Name)
			}
		}
		meta.Director = strings.Join(directors, ", ")
	}
	return meta
}

func seriesMeta(d *tmdbDetail) *models.Meta {
	imdbID := ""
	if d.ExternalIDs != nil {
		imdbID = d.ExternalIDs.IMDBID
	}
	meta := &models.Meta{
		ID:          canonicalID(imdbID, d.ID),
		Type:        models.MediaTypeSeries,
		Name:        d.Name,
		Poster:      imageURL(d.PosterPath, tmdbPosterSize),
		PosterShape: "regular",
		Background:  imageURL(d.BackdropPath, tmdbBackdropSize),
		Description: d.Overview,
		ReleaseInfo: seriesReleaseInfo(d.FirstAirDate, d.LastAirDate, d.InProduction),
		Genres:      genreNames(d.Genres),
		IMDBRating:  formatRating(d.VoteAverage),
		Status:      d.Status,

		TotalSeasons:  d.NumberOfSeasons,
		TotalEpisodes: d.NumberOfEpisodes,
	}
	if len(d.EpisodeRunTime) > 0 && d.EpisodeRunTime[0] > 0 {
		meta.Runtime = fmt.Sprintf("%d min", d.EpisodeRunTime[0])
	}
	if len(d.OriginCountry) > 0 {
		meta.Country = d.OriginCountry[0]
	}
	return meta
}

func genreNames(genres []tmdbGenre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

// canonicalID prefers the cross-service IMDB id and falls back to the
// provider-prefixed numeric id so callers never see an empty id.
func canonicalID(imdbID string, tmdbID int64) string {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID != "" {
		if !strings.HasPrefix(imdbID, "tt") {
			imdbID = "tt" + imdbID
		}
		return imdbID
	}
	return fmt.Sprintf("tmdb:%d", tmdbID)
}

// yearOf extracts the year prefix of a provider date (YYYY-MM-DD).
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// seriesReleaseInfo renders the run range, open-ended while the show is
// still in production ("2020 - " vs "2020 - 2023").
func seriesReleaseInfo(firstAirDate, lastAirDate string, inProduction bool) string {
	first := yearOf(firstAirDate)
	if first == "" {
		return ""
	}
	last := ""
	if !inProduction {
		last = yearOf(lastAirDate)
	}
	return fmt.Sprintf("%s - %s", first, last)
}

// formatRating rounds the provider vote average to one decimal; a zero
// average means "no rating" and renders empty.
func formatRating(voteAverage float64) string {
	if voteAverage <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", voteAverage)
}
