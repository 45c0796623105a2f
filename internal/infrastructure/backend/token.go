package backend

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/juthworks/webapp/internal/core/domain"
)

// TokenTTL derives a session lifetime from the credential's exp claim. The
// token is otherwise opaque to the gateway, so this is strictly best-effort:
// the claim is read without signature verification (verification is the
// backend's job) and any token that is not a parseable JWT, carries no exp,
// or is already expired falls back to the configured default.
func TokenTTL(token string, fallback time.Duration) time.Duration {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(domain.SanitizeToken(token), claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
