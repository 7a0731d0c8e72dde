// Package authn verifies bearer tokens for the API adapter (spec §6's
// authn.Verifier collaborator interface). Grounded on the teacher's
// internal/auth/service.go HS256 JWT issue/parse shape, trimmed to
// verification only: this spec's core never issues tokens, it only checks
// ones issued elsewhere, plus a bcrypt-hashed admin-key escape hatch for
// endpoints spec §6 marks "bearer+admin".
package authn

import (
	"github.com/gamebattle/arena/internal/arenaerr"
)

// Claims is what a verified token carries into a request.
type Claims struct {
	Email   string
	IsAdmin bool
}

// Verifier checks a bearer token and returns the caller's claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// RequireToken maps a missing token to arenaerr.AuthRequired — the shared
// check every handler runs before calling a Verifier.
func RequireToken(token string) error {
	if token == "" {
		return arenaerr.New(arenaerr.AuthRequired, "missing bearer token")
	}
	return nil
}

// RequireAdmin folds a non-admin caller into arenaerr.Forbidden, matching
// spec §7's rule that authorization failures never leak which resource
// exists.
func RequireAdmin(c Claims) error {
	if !c.IsAdmin {
		return arenaerr.New(arenaerr.Forbidden, "admin privileges required")
	}
	return nil
}
