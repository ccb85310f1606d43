package models

const (
	MediaTypeMovie  = "movie"
	MediaTypeSeries = "series"
)

// Manifest describes the addon to the media-center client.
type Manifest struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resources   []string  `json:"resources"`
	Types       []string  `json:"types"`
	Catalogs    []Catalog `json:"catalogs"`
	IDPrefixes  []string  `json:"idPrefixes,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Background  string    `json:"background,omitempty"`
}

// Catalog declares one catalog the addon serves.
type Catalog struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Extra []ExtraField `json:"extra,omitempty"`
}

// ExtraField declares an optional catalog filter (genre, skip, year).
type ExtraField struct {
	Name       string   `json:"name"`
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"isRequired,omitempty"`
}

// Meta is a catalog entry on the wire. Catalog listings populate the
// summary fields; the meta endpoint additionally fills the detail and
// kind-specific fields.
type Meta struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"` // "movie" | "series"
	Name        string   `json:"name"`
	Poster      string   `json:"poster,omitempty"`
	PosterShape string   `json:"posterShape,omitempty"`
	Background  string   `json:"background,omitempty"`
	Description string   `json:"description,omitempty"`
	ReleaseInfo string   `json:"releaseInfo,omitempty"`
	IMDBRating  string   `json:"imdbRating,omitempty"`
	Runtime     string   `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	// Movie only.
	Director string `json:"director,omitempty"`

	// Series only.
	Status        string `json:"status,omitempty"`
	TotalSeasons  int    `json:"totalSeasons,omitempty"`
	TotalEpisodes int    `json:"totalEpisodes,omitempty"`
	Country       string `json:"country,omitempty"`
}

// CatalogResponse is the body of /catalog/... responses.
type CatalogResponse struct {
	Metas []Meta `json:"metas"`
}

// MetaResponse is the body of /meta/... responses. Meta is a pointer so
// an unresolved id serializes as {"meta": null}.
type MetaResponse struct {
	Meta *Meta `json:"meta"`
}

// Stream is a playable source. This addon never produces any; stream
// resolution is delegated to other installed addons.
type Stream struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// StreamResponse is the body of /stream/... responses.
type StreamResponse struct {
	Streams []Stream `json:"streams"`
}
