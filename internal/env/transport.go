package env

import "strings"

// DefaultSelectTransport implements the standard http/https-vs-unsupported
// rule (spec.md §4.1). Host Env implementations normally just call this
// from their SelectTransport method.
func DefaultSelectTransport(transportURL string) TransportKind {
	lower := strings.ToLower(transportURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return TransportHTTP
	}
	return TransportUnsupported
}
