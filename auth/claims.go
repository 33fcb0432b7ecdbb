package auth

import (
	"time"

	"github.com/FBakkensen/launcher-auth/logging"
	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// decodeTokenClaims reads the claims of a JWT without verifying it. Only used for
// diagnostics; stored expiries always come from the provider's expires_in.
func decodeTokenClaims(raw string) (tokenClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, false
	}

	var out tokenClaims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, true
}

func logGameTokenClaims(raw string, expiresIn int64) {
	c, ok := decodeTokenClaims(raw)
	if !ok {
		logging.Debug("Game access token is opaque, skipping claim inspection")
		return
	}
	exp := ""
	if !c.ExpiresAt.IsZero() {
		exp = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	logging.Debug("Game access token claims",
		"sub", c.Subject,
		"exp", exp,
		"expiresIn", time.Duration(expiresIn*int64(time.Second)).String())
}
