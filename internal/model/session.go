package model

import "time"

// AuthSession is the token pair for the current login. It is replaced
// wholesale on refresh and destroyed on logout; no field is mutated in place.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Refreshable reports whether the session can be silently refreshed.
// A session without a refresh token is expiring-only.
func (s *AuthSession) Refreshable() bool {
	return s != nil && s.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires within d of now.
func (s *AuthSession) ExpiresWithin(d time.Duration, now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(s.ExpiresAt)
}
