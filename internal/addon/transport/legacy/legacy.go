// Package legacy implements the JSON-RPC-over-base64 addon transport
// variant kept for historical server compatibility (spec.md §4.2, §9
// "Legacy base64 uses standard alphabet ... keep as-is for wire
// compatibility").
package legacy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/watchstate/core/internal/addon/transport"
	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

// Transport builds `{base}/q.json?b={base64(JSON-RPC envelope)}` requests
// using the standard (non-URL-safe) base64 alphabet, matching historical
// servers.
type Transport struct{}

type envelope struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (t Transport) Fetch(ctx context.Context, fetcher env.Fetcher, req types.ResourceRequest) (types.ResourceResponse, error) {
	envel, err := buildEnvelope(req.Path)
	if err != nil {
		return types.ResourceResponse{}, err
	}
	data, err := json.Marshal(envel)
	if err != nil {
		return types.ResourceResponse{}, err
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	url := strings.TrimRight(req.Base, "/") + "/q.json?b=" + encoded

	var raw rpcResponse
	if err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: url}, &raw); err != nil {
		return types.ResourceResponse{}, err
	}
	if raw.Error != nil {
		return types.ResourceResponse{}, fmt.Errorf("AddonTransport: rpc error %d: %s", raw.Error.Code, raw.Error.Message)
	}
	return decodeResult(req.Path.Resource, raw.Result)
}

func buildEnvelope(path types.ResourcePath) (envelope, error) {
	method, query, err := methodAndQuery(path)
	if err != nil {
		return envelope{}, err
	}
	return envelope{ID: 1, JSONRPC: "2.0", Method: method, Params: []any{nil, query}}, nil
}

func methodAndQuery(path types.ResourcePath) (string, map[string]any, error) {
	switch path.Resource {
	case "catalog":
		return "meta.find", catalogQuery(path), nil
	case "meta":
		return "meta.get", queryFromID(path.ID), nil
	case "stream":
		q := queryFromID(path.ID)
		q["type"] = path.Type
		return "stream.find", q, nil
	case "subtitles":
		return "", nil, fmt.Errorf("%w: legacy transport does not support subtitles search", transport.ErrUnsupportedRequest)
	default:
		return "", nil, fmt.Errorf("%w: legacy transport has no mapping for resource %q", transport.ErrUnsupportedRequest, path.Resource)
	}
}

func catalogQuery(path types.ResourcePath) map[string]any {
	query := map[string]any{"type": path.Type}
	if genre, ok := path.Get("genre"); ok && genre != "" {
		query["genre"] = genre
	}

	skip := 0
	if s, ok := path.Get(types.SkipExtraName); ok {
		if parsed, err := strconv.Atoi(s); err == nil {
			skip = parsed
		}
	}

	out := map[string]any{
		"query": query,
		"limit": 100,
		"skip":  skip,
	}
	if path.ID != "top" {
		out["sort"] = map[string]any{path.ID: -1, "popularity": -1}
	}
	return out
}

// queryFromID implements spec.md §4.2's query_from_id table.
func queryFromID(id string) map[string]any {
	parts := strings.Split(id, ":")

	if strings.HasPrefix(id, "tt") && len(parts) == 3 {
		return map[string]any{"imdb_id": parts[0], "season": parts[1], "episode": parts[2]}
	}
	if strings.HasPrefix(id, "tt") {
		return map[string]any{"imdb_id": id}
	}

	if strings.HasPrefix(id, "UC") && len(parts) == 2 {
		return map[string]any{"yt_id": parts[0], "video_id": parts[1]}
	}
	if strings.HasPrefix(id, "UC") {
		return map[string]any{"yt_id": id}
	}

	if len(parts) == 2 || len(parts) == 3 {
		q := map[string]any{parts[0]: parts[1]}
		if len(parts) == 3 {
			q["video_id"] = parts[2]
		}
		return q
	}
	return map[string]any{parts[0]: id}
}

func decodeResult(resource string, raw json.RawMessage) (types.ResourceResponse, error) {
	switch resource {
	case "catalog":
		var metas []types.MetaPreview
		if err := json.Unmarshal(raw, &metas); err != nil {
			return types.ResourceResponse{}, err
		}
		return types.ResourceResponse{Kind: types.RespMetas, Metas: metas}, nil
	case "meta":
		var meta types.MetaItem
		if err := json.Unmarshal(raw, &meta); err != nil {
			return types.ResourceResponse{}, err
		}
		return types.ResourceResponse{Kind: types.RespMeta, Meta: meta}, nil
	case "stream":
		var streams []types.Stream
		if err := json.Unmarshal(raw, &streams); err != nil {
			return types.ResourceResponse{}, err
		}
		return types.ResourceResponse{Kind: types.RespStreams, Streams: streams}, nil
	default:
		return types.ResourceResponse{}, fmt.Errorf("%w: cannot decode legacy result for resource %q", transport.ErrUnsupportedRequest, resource)
	}
}

var _ transport.Transport = Transport{}
