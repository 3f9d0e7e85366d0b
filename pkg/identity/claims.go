package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EstimateExpiry extracts the expiry from a JWT-shaped token without
// verifying its signature. It is a best-effort scheduling hint only: the
// server performs the real validation. Tokens that are not JWTs, or that
// carry no exp claim, fall back to now + DefaultTokenLifetime.
func EstimateExpiry(token string, now time.Time) time.Time {
	fallback := now.Add(DefaultTokenLifetime)

	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}

	if exp.Time.Before(now) {
		return fallback
	}

	return exp.Time
}
