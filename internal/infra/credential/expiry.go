// Package credential persists the upstream session token for one BFF
// session. Tokens whose JWT exp claim has passed are treated as absent.
package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether token carries an exp claim at or before now.
// Tokens that are not JWTs, or carry no exp, are left to the server to judge.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
