package handlers

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/afero"

	"streamdex/models"
	"streamdex/services/catalog"
	"streamdex/services/metadata"
)

// ManifestProvider serves the addon manifest. Operators can override the
// compiled-in manifest by dropping a JSON file at the configured path;
// when the file is absent or unreadable the default is served.
type ManifestProvider struct {
	fs   afero.Fs
	path string
}

// NewManifestProvider reads manifest overrides from path on fs.
func NewManifestProvider(fs afero.Fs, path string) *ManifestProvider {
	return &ManifestProvider{fs: fs, path: path}
}

// Manifest returns the manifest to serve, preferring the override file.
func (p *ManifestProvider) Manifest() models.Manifest {
	if p.fs != nil && p.path != "" {
		data, err := afero.ReadFile(p.fs, p.path)
		if err == nil {
			var m models.Manifest
			if jsonErr := json.Unmarshal(data, &m); jsonErr == nil && m.ID != "" {
				return m
			}
			log.Printf("[manifest] override file %s is not a valid manifest, using default", p.path)
		}
	}
	return defaultManifest()
}

func genreExtra(mediaType string) []models.ExtraField {
	return []models.ExtraField{
		{Name: "genre", Options: metadata.GenreNames(mediaType)},
		{Name: "skip"},
	}
}

func defaultManifest() models.Manifest {
	movieExtra := genreExtra(models.MediaTypeMovie)
	seriesExtra := genreExtra(models.MediaTypeSeries)

	return models.Manifest{
		ID:          "community.streamdex",
		Version:     "1.0.0",
		Name:        "Streamdex",
		Description: "Curated catalogs of newly aired shows, recent movie releases, dubbed anime, trending and recommended titles.",
		Resources:   []string{"catalog", "meta", "stream"},
		Types:       []string{models.MediaTypeMovie, models.MediaTypeSeries},
		IDPrefixes:  []string{"tt", "tmdb:"},
		Catalogs: []models.Catalog{
			{
				Type:  models.MediaTypeSeries,
				ID:    catalog.CatalogLatestTVShows,
				Name:  "Latest TV Shows",
				Extra: seriesExtra,
			},
			{
				Type: models.MediaTypeMovie,
				ID:   catalog.CatalogLatestMovieReleases,
				Name: "Latest Movie Releases",
				Extra: append([]models.ExtraField{
					{Name: "year"},
				}, movieExtra...),
			},
			{
				Type:  models.MediaTypeSeries,
				ID:    catalog.CatalogLatestDubbedAnime,
				Name:  "Latest Dubbed Anime",
				Extra: seriesExtra,
			},
			{
				Type:  models.MediaTypeMovie,
				ID:    catalog.CatalogTopTrendingMovies,
				Name:  "Top Trending Movies",
				Extra: movieExtra,
			},
			{
				Type:  models.MediaTypeSeries,
				ID:    catalog.CatalogTopTrendingTVShows,
				Name:  "Top Trending TV Shows",
				Extra: seriesExtra,
			},
			{
				Type:  models.MediaTypeMovie,
				ID:    catalog.CatalogRecommendedContent,
				Name:  "Recommended Movies",
				Extra: movieExtra,
			},
			{
				Type:  models.MediaTypeMovie,
				ID:    catalog.CatalogTraktPopular,
				Name:  "Popular on Trakt",
				Extra: []models.ExtraField{{Name: "skip"}},
			},
		},
	}
}

// WriteDefaultManifest writes the compiled-in manifest to path when no
// file exists there yet, giving operators a starting point to edit.
func WriteDefaultManifest(fs afero.Fs, path string) error {
	if exists, _ := afero.Exists(fs, path); exists {
		return nil
	}
	data, err := json.MarshalIndent(defaultManifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
