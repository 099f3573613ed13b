package resource

import (
	"context"

	"github.com/watchstate/core/internal/addon/transport"
	"github.com/watchstate/core/internal/addon/transport/legacy"
	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

// TransportFor picks the Transport implementation for a transport URL using
// the environment's TransportSelector, falling back to the legacy
// JSON-RPC-over-base64 transport for hosts the selector marks unsupported
// for the modern path but that still respond to /q.json (spec.md §4.1/4.2).
func TransportFor(sel env.TransportSelector, transportURL string, legacyHosts func(string) bool) transport.Transport {
	if sel.SelectTransport(transportURL) == env.TransportHTTP {
		return transport.HTTP{}
	}
	if legacyHosts != nil && legacyHosts(transportURL) {
		return legacy.Transport{}
	}
	return transport.HTTP{}
}

// Fetch runs req through tr and reports the result as a ResultAction ready
// to fold back into a Bucket via Apply.
func Fetch(ctx context.Context, tr transport.Transport, fetcher env.Fetcher, req types.ResourceRequest) ResultAction {
	resp, err := tr.Fetch(ctx, fetcher, req)
	return ResultAction{Request: req, Response: resp, Err: err}
}
