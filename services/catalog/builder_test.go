package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamdex/models"
	"streamdex/services/cache"
	"streamdex/services/metadata"
	"streamdex/services/recommend"
)

type fakeFeed struct {
	entries []models.Announcement
	err     error
	calls   int
}

func (f *fakeFeed) FetchCandidates(ctx context.Context) ([]models.Announcement, error) {
	f.calls++
	return f.entries, f.err
}

type fakeResolver struct {
	enabled      bool
	byTitle      map[string]*metadata.Record
	titleCalls   []string
	discovered   []metadata.Record
	discoverArgs []metadata.DiscoverQuery
	trendingRecs []metadata.Record
	trendingPage int
	byID         map[string]*models.Meta
}

func (f *fakeResolver) Enabled() bool { return f.enabled }

func (f *fakeResolver) ResolveByTitle(ctx context.Context, name, mediaType string) *metadata.Record {
	f.titleCalls = append(f.titleCalls, name)
	return f.byTitle[name]
}

func (f *fakeResolver) ResolveByID(ctx context.Context, idKind metadata.IDKind, idValue, mediaType string) *models.Meta {
	return f.byID[idValue]
}

func (f *fakeResolver) Discover(ctx context.Context, mediaType string, q metadata.DiscoverQuery) []metadata.Record {
	f.discoverArgs = append(f.discoverArgs, q)
	return f.discovered
}

func (f *fakeResolver) Trending(ctx context.Context, mediaType string, page int) []metadata.Record {
	f.trendingPage = page
	return f.trendingRecs
}

type fakeTrakt struct {
	enabled bool
	movies  []recommend.TrendingMovie
	err     error
}

func (f *fakeTrakt) Enabled() bool { return f.enabled }

func (f *fakeTrakt) TrendingMovies(ctx context.Context, page, limit int) ([]recommend.TrendingMovie, error) {
	return f.movies, f.err
}

func seriesRecord(id string, name string, genreIDs ...int64) *metadata.Record {
	return &metadata.Record{
		Meta:     models.Meta{ID: id, Type: models.MediaTypeSeries, Name: name},
		GenreIDs: genreIDs,
	}
}

func movieRecords(n int, lang string) []metadata.Record {
	records := make([]metadata.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, metadata.Record{
			Meta: models.Meta{
				ID:   fmt.Sprintf("tmdb:%d", i+1),
				Type: models.MediaTypeMovie,
				Name: fmt.Sprintf("Movie %d", i+1),
			},
			TMDBID:           int64(i + 1),
			OriginalLanguage: lang,
			VoteCount:        1000,
		})
	}
	return records
}

func newTestBuilder(feed *fakeFeed, meta *fakeResolver, trakt *fakeTrakt) *Builder {
	var rec recommender
	if trakt != nil {
		rec = trakt
	}
	b := NewBuilder(cache.New(30*time.Minute), feed, meta, rec)
	b.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return b
}

func TestQueryPage(t *testing.T) {
	tests := map[int]int{0: 1, 19: 1, 20: 2, 40: 3, 41: 3}
	for skip, want := range tests {
		if got := (Query{Skip: skip}).Page(); got != want {
			t.Fatalf("Page(skip=%d) = %d, want %d", skip, got, want)
		}
	}
}

func TestBuildUnknownCatalogIsEmptyNotError(t *testing.T) {
	b := newTestBuilder(&fakeFeed{}, &fakeResolver{}, nil)
	metas := b.Build(context.Background(), Query{CatalogID: "no_such_catalog"})
	require.NotNil(t, metas)
	require.Empty(t, metas)
}

func TestNewlyAiredDeduplicatesAndResolves(t *testing.T) {
	feed := &fakeFeed{entries: []models.Announcement{
		{ShowName: "Alpha"},
		{ShowName: "Alpha"}, // duplicate, first occurrence wins
		{ShowName: "Beta"},
		{ShowName: "Gamma"}, // unresolvable
	}}
	meta := &fakeResolver{byTitle: map[string]*metadata.Record{
		"Alpha": seriesRecord("tt1", "Alpha", 18),
		"Beta":  seriesRecord("tt2", "Beta", 35),
	}}
	b := newTestBuilder(feed, meta, nil)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows, MediaType: models.MediaTypeSeries})
	require.Len(t, metas, 2)
	assert.Equal(t, "tt1", metas[0].ID)
	assert.Equal(t, "tt2", metas[1].ID)
	// Alpha resolved once despite appearing twice.
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, meta.titleCalls)
}

func TestNewlyAiredGenreFilter(t *testing.T) {
	feed := &fakeFeed{entries: []models.Announcement{
		{ShowName: "Dramatic"},
		{ShowName: "Funny"},
		{ShowName: "Unlabeled"},
	}}
	meta := &fakeResolver{byTitle: map[string]*metadata.Record{
		"Dramatic":  seriesRecord("tt1", "Dramatic", 18),
		"Funny":     seriesRecord("tt2", "Funny", 35),
		"Unlabeled": seriesRecord("tt3", "Unlabeled"), // no genre data
	}}
	b := newTestBuilder(feed, meta, nil)

	metas := b.Build(context.Background(), Query{
		CatalogID: CatalogLatestTVShows,
		MediaType: models.MediaTypeSeries,
		Genre:     "Drama",
	})
	require.Len(t, metas, 2)
	assert.Equal(t, "tt1", metas[0].ID)
	// Absent genre-id data never drops an item.
	assert.Equal(t, "tt3", metas[1].ID)
}

func TestNewlyAiredScanCapWidensWithSkip(t *testing.T) {
	var entries []models.Announcement
	byTitle := make(map[string]*metadata.Record)
	for i := 0; i < 120; i++ {
		name := fmt.Sprintf("Show %03d", i)
		entries = append(entries, models.Announcement{ShowName: name})
		// Only every sixth show resolves, so the scan cap binds before
		// a full page is collected.
		if i%6 == 0 {
			byTitle[name] = seriesRecord(fmt.Sprintf("tt%d", i), name)
		}
	}
	feed := &fakeFeed{entries: entries}
	meta := &fakeResolver{byTitle: byTitle}
	b := newTestBuilder(feed, meta, nil)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows})
	assert.Len(t, metas, 9, "50 scanned candidates resolve every sixth: indexes 0..48")
	assert.Len(t, meta.titleCalls, 50)

	// skip widens the scan cap; it does not offset into the stream.
	meta2 := &fakeResolver{byTitle: byTitle}
	b2 := newTestBuilder(&fakeFeed{entries: entries}, meta2, nil)
	metas2 := b2.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows, Skip: 40})
	assert.Len(t, meta2.titleCalls, 90)
	assert.Equal(t, metas[0].ID, metas2[0].ID, "skip must not offset the accepted stream")
}

func TestNewlyAiredFeedResultIsCached(t *testing.T) {
	feed := &fakeFeed{entries: []models.Announcement{{ShowName: "Alpha"}}}
	meta := &fakeResolver{byTitle: map[string]*metadata.Record{"Alpha": seriesRecord("tt1", "Alpha")}}
	b := newTestBuilder(feed, meta, nil)

	b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows})
	b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows})
	assert.Equal(t, 1, feed.calls, "feed output must be served from cache within the TTL")
}

func TestNewlyAiredFeedFailureIsEmptyAndRetried(t *testing.T) {
	feed := &fakeFeed{err: errors.New("boom")}
	b := newTestBuilder(feed, &fakeResolver{}, nil)

	require.Empty(t, b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows}))
	require.Empty(t, b.Build(context.Background(), Query{CatalogID: CatalogLatestTVShows}))
	assert.Equal(t, 2, feed.calls, "failures are never cached")
}

func TestRecentMoviesDiscoverQueryShape(t *testing.T) {
	meta := &fakeResolver{discovered: movieRecords(5, "en")}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{
		CatalogID: CatalogLatestMovieReleases,
		MediaType: models.MediaTypeMovie,
		Genre:     "Horror",
		Year:      "2024",
		Skip:      40,
	})
	require.Len(t, metas, 5)
	require.Len(t, meta.discoverArgs, 1)

	dq := meta.discoverArgs[0]
	assert.Equal(t, "popularity.desc", dq.SortBy)
	assert.Equal(t, 100, dq.MinVoteCount)
	assert.Equal(t, []int64{27}, dq.Genres)
	assert.Equal(t, "2024", dq.Year)
	assert.Equal(t, 3, dq.Page, "skip=40 computes page 3")
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), dq.ReleasedSince)
}

func TestRecentMoviesFiltersNonEnglish(t *testing.T) {
	records := append(movieRecords(2, "en"), movieRecords(2, "fr")...)
	meta := &fakeResolver{discovered: records}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogLatestMovieReleases})
	require.Len(t, metas, 2)
}

func TestDubbedAnimePipeline(t *testing.T) {
	records := []metadata.Record{
		{Meta: models.Meta{ID: "tmdb:1", Type: models.MediaTypeSeries, Name: "Popular Anime"}, VoteCount: 500},
		{Meta: models.Meta{ID: "tmdb:2", Type: models.MediaTypeSeries, Name: "Obscure Anime"}, VoteCount: 5},
	}
	meta := &fakeResolver{discovered: records}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{
		CatalogID: CatalogLatestDubbedAnime,
		MediaType: models.MediaTypeSeries,
		Genre:     "Comedy",
	})
	require.Len(t, metas, 1)
	assert.Equal(t, "Popular Anime (Dub)", metas[0].Name)

	dq := meta.discoverArgs[0]
	assert.Equal(t, []int64{16, 35}, dq.Genres, "Animation id is always ANDed with the user genre")
	assert.Equal(t, "ja", dq.OriginalLanguage)
	assert.Equal(t, "first_air_date.desc", dq.SortBy)
}

func TestTrendingMoviesEndToEnd(t *testing.T) {
	meta := &fakeResolver{trendingRecs: movieRecords(30, "en")}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogTopTrendingMovies, MediaType: models.MediaTypeMovie})
	require.LessOrEqual(t, len(metas), 20)
	require.NotEmpty(t, metas)
	for _, m := range metas {
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, models.MediaTypeMovie, m.Type)
	}
	assert.Equal(t, 1, meta.trendingPage)
}

func TestTrendingGenreFilterKeepsItemsWithoutGenreData(t *testing.T) {
	records := []metadata.Record{
		{Meta: models.Meta{ID: "tmdb:1", Type: models.MediaTypeMovie, Name: "Scary"}, GenreIDs: []int64{27}},
		{Meta: models.Meta{ID: "tmdb:2", Type: models.MediaTypeMovie, Name: "Funny"}, GenreIDs: []int64{35}},
		{Meta: models.Meta{ID: "tmdb:3", Type: models.MediaTypeMovie, Name: "Unknown"}},
	}
	meta := &fakeResolver{trendingRecs: records}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{
		CatalogID: CatalogTopTrendingMovies,
		MediaType: models.MediaTypeMovie,
		Genre:     "Horror",
	})
	require.Len(t, metas, 2)
	assert.Equal(t, "tmdb:1", metas[0].ID)
	assert.Equal(t, "tmdb:3", metas[1].ID, "absent genre-id data never drops an item")
}

func TestRecommendedContentQueryShape(t *testing.T) {
	meta := &fakeResolver{discovered: movieRecords(3, "en")}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogRecommendedContent})
	require.Len(t, metas, 3)

	dq := meta.discoverArgs[0]
	assert.Equal(t, "vote_average.desc", dq.SortBy)
	assert.Equal(t, 500, dq.MinVoteCount)
	assert.Equal(t, "en", dq.OriginalLanguage)
}

func TestTraktPopularDegradesWithoutClientID(t *testing.T) {
	b := newTestBuilder(&fakeFeed{}, &fakeResolver{}, &fakeTrakt{enabled: false})
	require.Empty(t, b.Build(context.Background(), Query{CatalogID: CatalogTraktPopular}))

	b2 := newTestBuilder(&fakeFeed{}, &fakeResolver{}, nil)
	require.Empty(t, b2.Build(context.Background(), Query{CatalogID: CatalogTraktPopular}))
}

func TestTraktPopularResolvesThroughMetadata(t *testing.T) {
	trakt := &fakeTrakt{enabled: true, movies: []recommend.TrendingMovie{
		{Movie: recommend.Movie{Title: "Heat", Year: 1995, IDs: recommend.IDs{TMDB: 949, IMDB: "tt0113277"}}},
		{Movie: recommend.Movie{Title: "No IDs", Year: 2001}},
		{Movie: recommend.Movie{Title: "IMDB Only", Year: 2010, IDs: recommend.IDs{IMDB: "tt777"}}},
	}}
	meta := &fakeResolver{byID: map[string]*models.Meta{
		"949": {ID: "tt0113277", Type: models.MediaTypeMovie, Name: "Heat", Poster: "p"},
	}}
	b := newTestBuilder(&fakeFeed{}, meta, trakt)

	metas := b.Build(context.Background(), Query{CatalogID: CatalogTraktPopular})
	require.Len(t, metas, 2)
	assert.Equal(t, "tt0113277", metas[0].ID)
	assert.Equal(t, "p", metas[0].Poster)
	// No resolvable ids at all is skipped; imdb-only falls back to feed data.
	assert.Equal(t, "tt777", metas[1].ID)
	assert.Equal(t, "2010", metas[1].ReleaseInfo)
}

func TestDiscoveryResultsAreCachedPerKey(t *testing.T) {
	meta := &fakeResolver{discovered: movieRecords(3, "en")}
	b := newTestBuilder(&fakeFeed{}, meta, nil)

	q := Query{CatalogID: CatalogLatestMovieReleases, Genre: "Horror"}
	b.Build(context.Background(), q)
	b.Build(context.Background(), q)
	assert.Len(t, meta.discoverArgs, 1, "same (pipeline, genre, year, page) must hit the cache")

	b.Build(context.Background(), Query{CatalogID: CatalogLatestMovieReleases, Genre: "Comedy"})
	assert.Len(t, meta.discoverArgs, 2, "a different genre is a different cache key")
}

func TestTraktPopularCapsAtPageSize(t *testing.T) {
	var movies []recommend.TrendingMovie
	byID := make(map[string]*models.Meta)
	for i := 0; i < 30; i++ {
		id := int64(i + 1)
		movies = append(movies, recommend.TrendingMovie{Movie: recommend.Movie{
			Title: fmt.Sprintf("Movie %d", i), IDs: recommend.IDs{TMDB: id},
		}})
		byID[strconv.FormatInt(id, 10)] = &models.Meta{ID: fmt.Sprintf("tt%d", id), Type: models.MediaTypeMovie}
	}
	b := newTestBuilder(&fakeFeed{}, &fakeResolver{byID: byID}, &fakeTrakt{enabled: true, movies: movies})

	metas := b.Build(context.Background(), Query{CatalogID: CatalogTraktPopular})
	require.Len(t, metas, 20)
}
