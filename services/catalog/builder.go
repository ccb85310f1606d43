// Package catalog orchestrates the per-catalog pipelines: feed
// ingestion, metadata resolution, filtering, pagination and assembly of
// summary records.
package catalog

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"streamdex/models"
	"streamdex/services/cache"
	"streamdex/services/metadata"
	"streamdex/services/recommend"
)

const (
	pageSize = 20
	// feedScanBase caps how many unique feed candidates a single call
	// resolves; skip widens the cap without offsetting the stream.
	feedScanBase = 50

	feedCacheKey = "eztv_latest_shows"
)

// Catalog identifiers served by Build. Anything else yields an empty
// result set, never an error.
const (
	CatalogLatestTVShows       = "latest_tv_shows"
	CatalogLatestMovieReleases = "latest_movie_releases"
	CatalogLatestDubbedAnime   = "latest_dubbed_anime"
	CatalogTopTrendingMovies   = "top_trending_movies"
	CatalogTopTrendingTVShows  = "top_trending_tv_shows"
	CatalogRecommendedContent  = "recommended_content"
	CatalogTraktPopular        = "trakt_popular"
)

// Query selects a catalog page.
type Query struct {
	CatalogID string
	MediaType string
	Genre     string // display name, optional
	Year      string // optional
	Skip      int
}

// Page converts the skip offset into the provider page number, 20 items
// per page.
func (q Query) Page() int {
	return q.Skip/pageSize + 1
}

type feedIngestor interface {
	FetchCandidates(ctx context.Context) ([]models.Announcement, error)
}

type metadataResolver interface {
	Enabled() bool
	ResolveByTitle(ctx context.Context, name, mediaType string) *metadata.Record
	ResolveByID(ctx context.Context, idKind metadata.IDKind, idValue, mediaType string) *models.Meta
	Discover(ctx context.Context, mediaType string, q metadata.DiscoverQuery) []metadata.Record
	Trending(ctx context.Context, mediaType string, page int) []metadata.Record
}

type recommender interface {
	Enabled() bool
	TrendingMovies(ctx context.Context, page, limit int) ([]recommend.TrendingMovie, error)
}

// Builder resolves catalog queries into summary record pages. All
// remote lookups go through the shared response cache.
type Builder struct {
	cache *cache.Cache
	feed  feedIngestor
	meta  metadataResolver
	trakt recommender
	now   func() time.Time
}

// NewBuilder wires the pipelines to their collaborators.
func NewBuilder(c *cache.Cache, feed feedIngestor, meta metadataResolver, trakt recommender) *Builder {
	return &Builder{
		cache: c,
		feed:  feed,
		meta:  meta,
		trakt: trakt,
		now:   time.Now,
	}
}

// Build dispatches the query to its pipeline. Every pipeline returns at
// most 20 records; failures of any collaborator collapse to an empty
// page.
func (b *Builder) Build(ctx context.Context, q Query) []models.Meta {
	switch q.CatalogID {
	case CatalogLatestTVShows:
		return b.newlyAired(ctx, q)
	case CatalogLatestMovieReleases:
		return b.recentMovies(ctx, q)
	case CatalogLatestDubbedAnime:
		return b.dubbedAnime(ctx, q)
	case CatalogTopTrendingMovies:
		return b.trendingPage(ctx, q, models.MediaTypeMovie, "tmdb_trending_movies")
	case CatalogTopTrendingTVShows:
		return b.trendingPage(ctx, q, models.MediaTypeSeries, "tmdb_trending_tv")
	case CatalogRecommendedContent:
		return b.recommendedMovies(ctx, q)
	case CatalogTraktPopular:
		return b.traktPopular(ctx, q)
	default:
		log.Printf("[catalog] unknown catalog id %q", q.CatalogID)
		return []models.Meta{}
	}
}

// newlyAired is the feed-based pipeline: cached feed candidates,
// deduplicated by parsed show name (first occurrence wins), each unique
// name resolved to a canonical record, with an optional post-hoc genre
// filter. Resolution stops at a full page or once 50+skip unique
// candidates have been scanned; skip widens the scan cap but does not
// offset into the stream.
func (b *Builder) newlyAired(ctx context.Context, q Query) []models.Meta {
	entries, ok := cache.GetOrCompute(b.cache, feedCacheKey, func() ([]models.Announcement, bool) {
		list, err := b.feed.FetchCandidates(ctx)
		if err != nil {
			log.Printf("[catalog] feed fetch failed: %v", err)
			return nil, false
		}
		return list, len(list) > 0
	})
	if !ok {
		return []models.Meta{}
	}

	genreID, filterGenre := int64(0), false
	if q.Genre != "" {
		genreID, filterGenre = metadata.GenreID(models.MediaTypeSeries, q.Genre)
	}

	seen := make(map[string]struct{})
	metas := []models.Meta{}
	scanCap := feedScanBase + q.Skip
	scanned := 0

	for _, entry := range entries {
		if scanned >= scanCap || len(metas) >= pageSize {
			break
		}
		if _, dup := seen[entry.ShowName]; dup {
			continue
		}
		seen[entry.ShowName] = struct{}{}
		scanned++

		rec := b.meta.ResolveByTitle(ctx, entry.ShowName, models.MediaTypeSeries)
		if rec == nil {
			continue
		}
		if filterGenre && !genreIDSetIncludes(rec.GenreIDs, genreID) {
			continue
		}
		metas = append(metas, rec.Meta)
	}
	return metas
}

// recentMovies lists movies released in the last 90 days, most popular
// first, with an obscurity floor on vote count.
func (b *Builder) recentMovies(ctx context.Context, q Query) []models.Meta {
	dq := metadata.DiscoverQuery{
		SortBy:        "popularity.desc",
		MinVoteCount:  100,
		ReleasedSince: b.now().AddDate(0, 0, -90),
		Year:          q.Year,
		Page:          q.Page(),
	}
	if id, ok := metadata.GenreID(models.MediaTypeMovie, q.Genre); ok {
		dq.Genres = []int64{id}
	}

	key := fmt.Sprintf("tmdb_latest_movies_%s_%s_%d", q.Genre, q.Year, q.Page())
	records, ok := b.cachedDiscover(ctx, key, models.MediaTypeMovie, dq)
	if !ok {
		return []models.Meta{}
	}

	metas := []models.Meta{}
	for _, rec := range records {
		if rec.OriginalLanguage != "en" {
			continue
		}
		metas = append(metas, rec.Meta)
		if len(metas) >= pageSize {
			break
		}
	}
	return metas
}

// dubbedAnime lists recent Japanese animation series. The provider has
// no dub/sub attribute, so the display name carries a fixed "(Dub)"
// suffix as a presentational assumption. The Animation genre id is
// always ANDed with any user-chosen genre.
func (b *Builder) dubbedAnime(ctx context.Context, q Query) []models.Meta {
	animationID, _ := metadata.GenreID(models.MediaTypeSeries, "Animation")
	genres := []int64{animationID}
	if id, ok := metadata.GenreID(models.MediaTypeSeries, q.Genre); ok && id != animationID {
		genres = append(genres, id)
	}

	dq := metadata.DiscoverQuery{
		SortBy:           "first_air_date.desc",
		OriginalLanguage: "ja",
		Genres:           genres,
		Page:             q.Page(),
	}

	key := fmt.Sprintf("tmdb_latest_anime_%s_%d", q.Genre, q.Page())
	records, ok := b.cachedDiscover(ctx, key, models.MediaTypeSeries, dq)
	if !ok {
		return []models.Meta{}
	}

	metas := []models.Meta{}
	for _, rec := range records {
		if rec.VoteCount <= 100 {
			continue
		}
		meta := rec.Meta
		meta.Name = meta.Name + " (Dub)"
		metas = append(metas, meta)
		if len(metas) >= pageSize {
			break
		}
	}
	return metas
}

// trendingPage serves both trending catalogs: one provider trending
// page, capped to the top 20, English originals only, with an optional
// post-hoc genre filter.
func (b *Builder) trendingPage(ctx context.Context, q Query, mediaType, keyPrefix string) []models.Meta {
	key := fmt.Sprintf("%s_%s_%d", keyPrefix, q.Genre, q.Page())
	records, ok := cache.GetOrCompute(b.cache, key, func() ([]metadata.Record, bool) {
		recs := b.meta.Trending(ctx, mediaType, q.Page())
		return recs, len(recs) > 0
	})
	if !ok {
		return []models.Meta{}
	}

	if len(records) > pageSize {
		records = records[:pageSize]
	}

	genreID, filterGenre := int64(0), false
	if q.Genre != "" {
		genreID, filterGenre = metadata.GenreID(mediaType, q.Genre)
	}

	metas := []models.Meta{}
	for _, rec := range records {
		if rec.OriginalLanguage != "" && rec.OriginalLanguage != "en" {
			continue
		}
		if filterGenre && !genreIDSetIncludes(rec.GenreIDs, genreID) {
			continue
		}
		metas = append(metas, rec.Meta)
	}
	return metas
}

// recommendedMovies lists highly-rated English movies with a
// significant vote floor. Non-personalized: no user history is
// involved.
func (b *Builder) recommendedMovies(ctx context.Context, q Query) []models.Meta {
	dq := metadata.DiscoverQuery{
		SortBy:           "vote_average.desc",
		MinVoteCount:     500,
		OriginalLanguage: "en",
		Page:             q.Page(),
	}
	if id, ok := metadata.GenreID(models.MediaTypeMovie, q.Genre); ok {
		dq.Genres = []int64{id}
	}

	key := fmt.Sprintf("tmdb_recommended_movies_%s_%d", q.Genre, q.Page())
	records, ok := b.cachedDiscover(ctx, key, models.MediaTypeMovie, dq)
	if !ok {
		return []models.Meta{}
	}

	metas := []models.Meta{}
	for _, rec := range records {
		metas = append(metas, rec.Meta)
		if len(metas) >= pageSize {
			break
		}
	}
	return metas
}

// traktPopular lists Trakt's public trending movies, resolved through
// the metadata provider for imagery. Without a client id the pipeline
// degrades to an empty page.
func (b *Builder) traktPopular(ctx context.Context, q Query) []models.Meta {
	if b.trakt == nil || !b.trakt.Enabled() {
		log.Printf("[catalog] trakt client id not configured; %s is empty", CatalogTraktPopular)
		return []models.Meta{}
	}

	key := fmt.Sprintf("trakt_popular_%d", q.Page())
	metas, ok := cache.GetOrCompute(b.cache, key, func() ([]models.Meta, bool) {
		list, err := b.trakt.TrendingMovies(ctx, q.Page(), pageSize)
		if err != nil {
			log.Printf("[catalog] trakt trending failed: %v", err)
			return nil, false
		}

		out := []models.Meta{}
		for _, tm := range list {
			var meta *models.Meta
			if tm.Movie.IDs.TMDB > 0 {
				meta = b.meta.ResolveByID(ctx, metadata.IDKindProvider,
					strconv.FormatInt(tm.Movie.IDs.TMDB, 10), models.MediaTypeMovie)
			}
			if meta == nil {
				if tm.Movie.IDs.IMDB == "" {
					continue
				}
				meta = &models.Meta{
					ID:   tm.Movie.IDs.IMDB,
					Type: models.MediaTypeMovie,
					Name: tm.Movie.Title,
				}
				if tm.Movie.Year > 0 {
					meta.ReleaseInfo = strconv.Itoa(tm.Movie.Year)
				}
			}
			out = append(out, *meta)
			if len(out) >= pageSize {
				break
			}
		}
		return out, len(out) > 0
	})
	if !ok {
		return []models.Meta{}
	}
	return metas
}

// cachedDiscover memoizes one discovery page under the pipeline's
// (genre, year, page) key.
func (b *Builder) cachedDiscover(ctx context.Context, key, mediaType string, dq metadata.DiscoverQuery) ([]metadata.Record, bool) {
	return cache.GetOrCompute(b.cache, key, func() ([]metadata.Record, bool) {
		recs := b.meta.Discover(ctx, mediaType, dq)
		return recs, len(recs) > 0
	})
}

// genreIDSetIncludes applies the post-hoc genre filter rule: an item is
// dropped only when it carries genre ids and the requested id is not
// among them. Absent genre data never drops an item.
func genreIDSetIncludes(ids []int64, want int64) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
