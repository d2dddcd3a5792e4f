package credentials

import (
	"errors"
	"time"
)

// ErrMissingRefreshToken is returned when a TokenSet without refresh token is stored.
var ErrMissingRefreshToken = errors.New("token set has no refresh token")

// TokenSet is the credential currently held for the bot account.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Validate reports whether the token set may be stored.
func (t TokenSet) Validate() error {
	if t.RefreshToken == "" {
		return ErrMissingRefreshToken
	}
	return nil
}

// Expired reports whether the access token must be renewed at now.
// The token counts as expired margin before ExpiresAt.
func (t TokenSet) Expired(now time.Time, margin time.Duration) bool {
	return !now.Before(t.ExpiresAt.Add(-margin))
}
