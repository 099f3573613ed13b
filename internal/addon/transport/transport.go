// Package transport translates a types.ResourceRequest into an HTTP fetch
// against an addon and decodes the resulting types.ResourceResponse
// (spec.md §4.2). Two Transport implementations exist: the modern JSON
// path here, and the legacy JSON-RPC-over-base64 variant in the legacy
// subpackage.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

// Transport fetches one resource request against a single addon.
type Transport interface {
	Fetch(ctx context.Context, fetcher env.Fetcher, req types.ResourceRequest) (types.ResourceResponse, error)
}

// ErrUnsupportedRequest is the dedicated sentinel for a request the
// transport has no way of serving (spec.md §4.2 "An unsupported
// resource/request becomes a dedicated sentinel error").
var ErrUnsupportedRequest = fmt.Errorf("addon transport: unsupported request")

// HTTP is the default transport: GET {base}/{resource}/{type}/{id}/{extra}.json.
type HTTP struct{}

func (HTTP) Fetch(ctx context.Context, fetcher env.Fetcher, req types.ResourceRequest) (types.ResourceResponse, error) {
	var resp types.ResourceResponse
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: req.URL()}, &resp)
	if err != nil {
		return types.ResourceResponse{}, err
	}
	return resp, nil
}

var _ Transport = HTTP{}

// FetchManifest retrieves and validates an addon's manifest.json: the first
// step of InstallAddon/UpgradeAddon (spec.md §4.4). transportURL is the
// manifest's own URL, per the addon protocol convention.
func FetchManifest(ctx context.Context, fetcher env.Fetcher, transportURL string) (types.Manifest, error) {
	var raw json.RawMessage
	if err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: transportURL}, &raw); err != nil {
		return types.Manifest{}, err
	}
	if err := ValidateManifestShape(raw); err != nil {
		return types.Manifest{}, fmt.Errorf("addon transport: %w", err)
	}
	var manifest types.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return types.Manifest{}, env.SerdeErr(err)
	}
	return manifest, nil
}
