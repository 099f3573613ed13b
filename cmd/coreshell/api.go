package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/watchstate/core/internal/auth"
	xlog "github.com/watchstate/core/internal/log"
	"github.com/watchstate/core/internal/models/catalog"
	"github.com/watchstate/core/internal/models/library"
	"github.com/watchstate/core/internal/player"
	"github.com/watchstate/core/internal/runtime"
	"github.com/watchstate/core/internal/types"
)

// mountAPI exposes a minimal REST surface over the dispatcher: enough to
// drive the catalog, details, library and player models against the
// mounted fixture addon without a
// real Stremio account, for local exercising of the wired stack. It is not
// the shape of a production client API — that belongs to whatever UI
// embeds this core — only a demonstration harness. adminToken gates the
// one admin route (/v1/admin/log-level); leaving it empty disables that
// route, since internal/auth.AuthorizeToken always rejects an empty
// expected token.
func mountAPI(r chi.Router, d *runtime.Dispatcher, logger zerolog.Logger, adminToken string, allowQueryToken bool) {
	r.Get("/v1/state", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, logger, d.State())
	})

	r.With(
		httprate.LimitByIP(5, time.Minute),
		requireAdminToken(adminToken, allowQueryToken),
	).Post("/v1/admin/log-level", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Level string `json:"level"`
		}
		if !decodeBody(w, req, &body) {
			return
		}
		principal, _ := req.Context().Value(principalContextKey{}).(*auth.Principal)
		if err := xlog.SetLevel(req.Context(), principal.ID, principal.Scopes, body.Level); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/v1/catalog/load", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			AddonTransportURL string `json:"addonTransportUrl"`
			Type              string `json:"type"`
			CatalogID         string `json:"catalogId"`
		}
		if !decodeBody(w, req, &body) {
			return
		}
		d.Dispatch(req.Context(), runtime.LoadCatalog{
			Selected: &catalog.Selected{
				AddonTransportURL: body.AddonTransportURL,
				Type:              body.Type,
				CatalogID:         body.CatalogID,
			},
		})
		writeJSON(w, logger, d.State().Catalog)
	})

	r.Post("/v1/catalog/next-page", func(w http.ResponseWriter, req *http.Request) {
		d.Dispatch(req.Context(), runtime.LoadNextCatalogPage{})
		writeJSON(w, logger, d.State().Catalog)
	})

	r.Post("/v1/details/load", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			MetaType    string `json:"metaType"`
			MetaID      string `json:"metaId"`
			GuessStream bool   `json:"guessStream"`
		}
		if !decodeBody(w, req, &body) {
			return
		}
		d.Dispatch(req.Context(), runtime.LoadDetails{
			MetaType:    body.MetaType,
			MetaID:      body.MetaID,
			GuessStream: body.GuessStream,
		})
		writeJSON(w, logger, d.State().Details)
	})

	r.Post("/v1/library/load", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Type string          `json:"type"`
			Sort library.SortKey `json:"sort"`
		}
		if !decodeBody(w, req, &body) {
			return
		}
		d.Dispatch(req.Context(), runtime.LoadLibrary{
			Selected: library.Selected{Type: body.Type, Sort: body.Sort},
		})
		writeJSON(w, logger, d.State().Library)
	})

	r.Post("/v1/player/load", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Stream      types.Stream        `json:"stream"`
			MetaRequest *types.ResourcePath `json:"metaRequest"`
		}
		if !decodeBody(w, req, &body) {
			return
		}
		d.Dispatch(req.Context(), runtime.LoadPlayer{
			Selected: player.Selected{Stream: body.Stream, MetaRequest: body.MetaRequest},
		})
		writeJSON(w, logger, d.State().Player)
	})

	r.Post("/v1/player/unload", func(w http.ResponseWriter, req *http.Request) {
		d.Dispatch(req.Context(), runtime.PlayerUnload{})
		w.WriteHeader(http.StatusNoContent)
	})
}

type principalContextKey struct{}

// requireAdminToken rejects requests that don't present expectedToken,
// identifying the caller as an auth.Principal for the handler's own
// audit logging. Grounded on the teacher's internal/auth.AuthorizeRequest,
// adapted from a standalone check into a chi middleware.
func requireAdminToken(expectedToken string, allowQueryToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token := auth.ExtractToken(req, allowQueryToken)
			if !auth.AuthorizeToken(token, expectedToken) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			principal := auth.NewPrincipal(token, []string{"admin"})
			ctx := context.WithValue(req.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func decodeBody(w http.ResponseWriter, req *http.Request, out any) bool {
	if req.Body == nil {
		return true
	}
	defer req.Body.Close()
	if err := json.NewDecoder(req.Body).Decode(out); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("api response encode failed")
	}
}
