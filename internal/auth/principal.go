// Package auth identifies the caller behind cmd/coreshell's admin routes.
// There is no user-account system here — a caller is whoever holds the
// configured admin token — so Principal exists only to give audit log
// entries (internal/log.SetLevel's "who") something stable to name,
// grounded on the teacher's internal/auth package.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Principal is the identity behind an authenticated admin request.
type Principal struct {
	// ID is a stable identifier: the hash of the presented token, since
	// the demo shell has no separate username to fall back to.
	ID string

	// Token is the raw token presented. Callers should avoid logging it.
	Token string

	// Scopes are the permissions granted to this principal.
	Scopes []string
}

// NewPrincipal derives a Principal from a presented token.
func NewPrincipal(token string, scopes []string) *Principal {
	hash := sha256.Sum256([]byte(token))
	return &Principal{
		ID:     "t_" + hex.EncodeToString(hash[:])[:16],
		Token:  token,
		Scopes: scopes,
	}
}
