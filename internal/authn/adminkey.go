package authn

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/gamebattle/arena/internal/arenaerr"
)

// adminKey pairs a bcrypt hash with the email it grants admin claims for.
type adminKey struct {
	email string
	hash  []byte
}

// AdminKeyVerifier checks a raw admin key against a fixed set of
// bcrypt-hashed keys (spec §6's "bcrypt-hashed admin keys"). Plain-text admin
// keys are never stored — the config carries only their bcrypt digests,
// which are checked with bcrypt.CompareHashAndPassword.
type AdminKeyVerifier struct {
	keys []adminKey
}

// NewAdminKeyVerifier takes email-to-bcrypt-hash pairs, as loaded from
// config.
func NewAdminKeyVerifier(hashesByEmail map[string]string) *AdminKeyVerifier {
	v := &AdminKeyVerifier{}
	for email, hash := range hashesByEmail {
		v.keys = append(v.keys, adminKey{email: email, hash: []byte(hash)})
	}
	return v
}

func (v *AdminKeyVerifier) Verify(token string) (Claims, error) {
	for _, k := range v.keys {
		if bcrypt.CompareHashAndPassword(k.hash, []byte(token)) == nil {
			return Claims{Email: k.email, IsAdmin: true}, nil
		}
	}
	return Claims{}, arenaerr.New(arenaerr.AuthInvalid, "no matching admin key")
}

// Composite tries each Verifier in order, returning the first success. It
// lets the API adapter accept either a JWT from the identity provider or a
// raw admin key, without either Verifier needing to know about the other.
type Composite struct {
	verifiers []Verifier
}

// NewComposite builds a Verifier that tries each of vs in order.
func NewComposite(vs ...Verifier) *Composite {
	return &Composite{verifiers: vs}
}

func (c *Composite) Verify(token string) (Claims, error) {
	var lastErr error
	for _, v := range c.verifiers {
		claims, err := v.Verify(token)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = arenaerr.New(arenaerr.AuthInvalid, "no verifiers configured")
	}
	return Claims{}, lastErr
}
