package authn

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamebattle/arena/internal/arenaerr"
)

// JWTVerifier is the default Verifier, grounded on the teacher's
// auth.Service.parseToken: HS256, a shared secret, MapClaims with an "email"
// field. Admin status is an additional "admin" boolean claim this spec adds,
// since the original dungeongate tokens carry no privilege level.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a verifier bound to a single HMAC secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, arenaerr.Wrap(arenaerr.AuthInvalid, err, "invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, arenaerr.New(arenaerr.AuthInvalid, "invalid token claims")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return Claims{}, arenaerr.New(arenaerr.AuthInvalid, "token missing email claim")
	}
	isAdmin, _ := claims["admin"].(bool)

	return Claims{Email: email, IsAdmin: isAdmin}, nil
}
