// Package fixtureaddon is a tiny in-process Stremio addon used to exercise
// cmd/coreshell end to end without a network dependency: one manifest, one
// catalog with two movies, and for each of them a meta item and a single
// playable stream.
// Routing follows types.ResourcePath.URI's `{resource}/{type}/{id}.json`
// shape (spec.md §4.2), grounded on the teacher's cmd/daemon http handler
// texture (chi router, explicit content-type, structured request logging)
// rather than any addon SDK, since the teacher never implements a server
// of this kind itself.
package fixtureaddon

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/watchstate/core/internal/types"
)

const (
	movieOneID = "fixture:movie:1"
	movieTwoID = "fixture:movie:2"
)

func manifest() types.Manifest {
	return types.Manifest{
		ID:      "org.watchstate.fixture",
		Version: "1.0.0",
		Name:    "Fixture Addon",
		Types:   []string{"movie"},
		Resources: []types.ManifestResource{
			types.ShortResource("catalog"),
			types.ShortResource("meta"),
			types.ShortResource("stream"),
		},
		Catalogs: []types.ManifestCatalog{
			{ID: "fixture-top", Type: "movie", Name: "Fixture Top"},
		},
	}
}

func catalog() types.ResourceResponse {
	return types.ResourceResponse{
		Kind: types.RespMetas,
		Metas: []types.MetaPreview{
			{ID: movieOneID, Type: "movie", Name: "Big Buck Bunny"},
			{ID: movieTwoID, Type: "movie", Name: "Sintel"},
		},
	}
}

func metaFor(id string) (types.ResourceResponse, bool) {
	names := map[string]string{movieOneID: "Big Buck Bunny", movieTwoID: "Sintel"}
	name, ok := names[id]
	if !ok {
		return types.ResourceResponse{}, false
	}
	return types.ResourceResponse{
		Kind: types.RespMeta,
		Meta: types.MetaItem{ID: id, Type: "movie", Name: name},
	}, true
}

func streamFor(id string) (types.ResourceResponse, bool) {
	urls := map[string]string{
		movieOneID: "https://download.blender.org/peach/bigbuckbunny_movies/big_buck_bunny_480p_h264.mov",
		movieTwoID: "https://download.blender.org/durian/sintel-1024-surround.mp4",
	}
	url, ok := urls[id]
	if !ok {
		return types.ResourceResponse{}, false
	}
	return types.ResourceResponse{
		Kind: types.RespStreams,
		Streams: []types.Stream{
			{Source: types.StreamSource{Kind: types.SourceURL, URL: url}, Name: "fixture"},
		},
	}, true
}

// Router mounts the manifest plus the three resources the fixture manifest
// declares.
func Router(logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Get("/manifest.json", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, logger, manifest())
	})

	r.Get("/catalog/{type}/{id}.json", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, logger, catalog())
	})

	r.Get("/meta/{type}/{id}.json", func(w http.ResponseWriter, req *http.Request) {
		resp, ok := metaFor(chi.URLParam(req, "id"))
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, logger, resp)
	})

	r.Get("/stream/{type}/{id}.json", func(w http.ResponseWriter, req *http.Request) {
		resp, ok := streamFor(chi.URLParam(req, "id"))
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, logger, resp)
	})

	return r
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("fixture addon response encode failed")
	}
}
