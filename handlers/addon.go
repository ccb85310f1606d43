// Package handlers exposes the addon protocol surface: manifest,
// catalog, meta and stream resources plus the configure page.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"streamdex/models"
	"streamdex/services/catalog"
	"streamdex/services/metadata"
)

type catalogBuilder interface {
	Build(ctx context.Context, q catalog.Query) []models.Meta
}

type detailResolver interface {
	ResolveByID(ctx context.Context, idKind metadata.IDKind, idValue, mediaType string) *models.Meta
}

// AddonHandler handles the addon protocol endpoints.
type AddonHandler struct {
	manifest *ManifestProvider
	catalogs catalogBuilder
	meta     detailResolver
}

// NewAddonHandler creates a handler over the catalog builder and
// metadata resolver.
func NewAddonHandler(manifest *ManifestProvider, catalogs catalogBuilder, meta detailResolver) *AddonHandler {
	return &AddonHandler{
		manifest: manifest,
		catalogs: catalogs,
		meta:     meta,
	}
}

// Register attaches the addon routes to the router. Matching runs on
// the encoded path so percent-encoded separators inside the extra
// segment survive until applyExtra unescapes the values.
func (h *AddonHandler) Register(r *mux.Router) {
	r.UseEncodedPath()
	r.HandleFunc("/manifest.json", h.Manifest).Methods(http.MethodGet)
	r.HandleFunc("/catalog/{type}/{id}.json", h.Catalog).Methods(http.MethodGet)
	r.HandleFunc("/catalog/{type}/{id}/{extra}.json", h.Catalog).Methods(http.MethodGet)
	r.HandleFunc("/meta/{type}/{id}.json", h.Meta).Methods(http.MethodGet)
	r.HandleFunc("/stream/{type}/{id}.json", h.Stream).Methods(http.MethodGet)
	r.HandleFunc("/configure", h.Configure).Methods(http.MethodGet)
	r.HandleFunc("/", h.redirectToConfigure).Methods(http.MethodGet)
}

// Manifest serves the addon manifest.
func (h *AddonHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manifest.Manifest())
}

// Catalog serves one catalog page. Unknown catalogs, missing upstream
// data and filter misses all serve an empty page, never an error status.
func (h *AddonHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	q := catalog.Query{
		MediaType: vars["type"],
		CatalogID: vars["id"],
	}
	applyExtra(&q, vars["extra"])

	metas := h.catalogs.Build(r.Context(), q)
	writeJSON(w, http.StatusOK, models.CatalogResponse{Metas: metas})
}

// Meta serves the full record for one item, keyed by canonical or
// provider-scoped id. Unresolvable ids get a 404 with a null meta body.
func (h *AddonHandler) Meta(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := vars["type"]

	kind, value, ok := metadata.ClassifyRequestID(vars["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, models.MetaResponse{Meta: nil})
		return
	}

	meta := h.meta.ResolveByID(r.Context(), kind, value, mediaType)
	if meta == nil {
		writeJSON(w, http.StatusNotFound, models.MetaResponse{Meta: nil})
		return
	}
	writeJSON(w, http.StatusOK, models.MetaResponse{Meta: meta})
}

// Stream always serves an empty stream list: this addon only provides
// catalogs and metadata, stream resolution belongs to other addons.
func (h *AddonHandler) Stream(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StreamResponse{Streams: []models.Stream{}})
}

func (h *AddonHandler) redirectToConfigure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/configure", http.StatusFound)
}

// applyExtra parses the extra path segment: &-joined key=value pairs
// with URL-escaped values, e.g. "genre=Sci-Fi%20%26%20Fantasy&skip=20".
// Unknown keys and malformed pairs are ignored.
func applyExtra(q *catalog.Query, extra string) {
	if extra == "" {
		return
	}
	for _, pair := range strings.Split(extra, "&") {
		key, rawValue, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		switch key {
		case "genre":
			q.Genre = value
		case "year":
			q.Year = value
		case "skip":
			if skip, err := strconv.Atoi(value); err == nil && skip >= 0 {
				q.Skip = skip
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[handlers] encode response: %v", err)
	}
}
