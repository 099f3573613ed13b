package ctxcore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchstate/core/internal/env"
)

// DefaultAPIBase is api.strem.io's JSON-RPC-flavoured REST base (spec.md §6).
const DefaultAPIBase = "https://api.strem.io/api/"

// APIError mirrors the {code, message} error shape every api.strem.io
// endpoint can return in place of a result (spec.md §6).
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("api error %d: %s", e.Code, e.Message) }

// APIClient calls api.strem.io-shaped endpoints through the host's Fetcher,
// keeping the wire envelope (discriminant `type` + optional `authKey`, and
// the `{result}`/`{error}` response shape) in one place (spec.md §6).
type APIClient struct {
	Base    string
	Fetcher env.Fetcher
}

// NewAPIClient builds a client against DefaultAPIBase.
func NewAPIClient(fetcher env.Fetcher) APIClient {
	return APIClient{Base: DefaultAPIBase, Fetcher: fetcher}
}

type apiEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// Call POSTs method with body merged from params plus {type: method} and,
// when authKey is non-empty, {authKey}. The JSON result is decoded into
// out; an {error} response becomes the returned error.
func (c APIClient) Call(ctx context.Context, method, authKey string, params map[string]any, out any) error {
	body := map[string]any{"type": method}
	if authKey != "" {
		body["authKey"] = authKey
	}
	for k, v := range params {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var raw apiEnvelope
	err = c.Fetcher.Fetch(ctx, env.FetchRequest{
		Method:  "POST",
		URL:     c.Base + method,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    data,
	}, &raw)
	if err != nil {
		return err
	}
	if raw.Error != nil {
		return raw.Error
	}
	if out == nil || len(raw.Result) == 0 {
		return nil
	}
	return json.Unmarshal(raw.Result, out)
}
