package metadata

import (
	"sort"
	"strings"

	"streamdex/models"
)

// TMDB keeps separate genre id spaces for movies and tv. Both tables are
// built once and never mutated; lookups go through GenreID/GenreName so
// a provider-fetched map could replace them later.

var movieGenreIDs = map[string]int64{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"TV Movie":        10770,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}

var tvGenreIDs = map[string]int64{
	"Action & Adventure": 10759,
	"Animation":          16,
	"Comedy":             35,
	"Crime":              80,
	"Documentary":        99,
	"Drama":              18,
	"Family":             10751,
	"Kids":               10762,
	"Mystery":            9648,
	"News":               10763,
	"Reality":            10764,
	"Sci-Fi & Fantasy":   10765,
	"Soap":               10766,
	"Talk":               10767,
	"War & Politics":     10768,
	"Western":            37,
}

func genreTable(mediaType string) map[string]int64 {
	switch mediaType {
	case models.MediaTypeMovie:
		return movieGenreIDs
	case models.MediaTypeSeries:
		return tvGenreIDs
	default:
		return nil
	}
}

// GenreID maps a display name to the provider's numeric genre id for the
// given media kind. The match is case-insensitive.
func GenreID(mediaType, name string) (int64, bool) {
	table := genreTable(mediaType)
	if table == nil || name == "" {
		return 0, false
	}
	if id, ok := table[name]; ok {
		return id, true
	}
	for display, id := range table {
		if strings.EqualFold(display, name) {
			return id, true
		}
	}
	return 0, false
}

// GenreName is the reverse lookup, numeric id to display name.
func GenreName(mediaType string, id int64) (string, bool) {
	for display, gid := range genreTable(mediaType) {
		if gid == id {
			return display, true
		}
	}
	return "", false
}

// GenreNames returns the display names for a media kind, sorted, for use
// as catalog filter options.
func GenreNames(mediaType string) []string {
	table := genreTable(mediaType)
	names := make([]string, 0, len(table))
	for display := range table {
		names = append(names, display)
	}
	sort.Strings(names)
	return names
}

// genreNamesForIDs maps a genre-id set to display names, skipping ids
// outside the table.
func genreNamesForIDs(mediaType string, ids []int64) []string {
	var names []string
	for _, id := range ids {
		if name, ok := GenreName(mediaType, id); ok {
			names = append(names, name)
		}
	}
	return names
}
