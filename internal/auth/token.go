package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/watchstate/core/internal/log"
)

// ExtractToken retrieves the admin token from a request, checked in order:
//  1. Authorization: Bearer <token>
//  2. Cookie: coreshell_session
//  3. Header: X-API-Token (legacy)
//  4. Query: ?token= (only when allowQuery is set)
func ExtractToken(r *http.Request, allowQuery bool) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	if c, err := r.Cookie("coreshell_session"); err == nil && c.Value != "" {
		return c.Value
	}

	if t := r.Header.Get("X-API-Token"); t != "" {
		return t
	}

	if allowQuery {
		if t := r.URL.Query().Get("token"); t != "" {
			log.L().Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("admin token passed as a query parameter; prefer the Authorization header")
			return t
		}
	}

	return ""
}

// AuthorizeToken reports whether got matches expected, in constant time.
// An empty expected token always rejects, so an unconfigured admin token
// disables the route rather than accepting any caller.
func AuthorizeToken(got, expected string) bool {
	if strings.TrimSpace(expected) == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// AuthorizeRequest extracts a token from r and validates it against expected.
func AuthorizeRequest(r *http.Request, expected string, allowQuery bool) bool {
	if r == nil {
		return false
	}
	return AuthorizeToken(ExtractToken(r, allowQuery), expected)
}
