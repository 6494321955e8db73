package provider

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the exp claim from a JWT access token without
// verifying the signature. Used when a family returns tokens with no
// explicit expiry. Reports false for opaque or claimless tokens.
func TokenExpiry(accessToken string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
