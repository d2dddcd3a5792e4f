package identity

import (
	"golang.org/x/oauth2"
)

// Endpoint defines the OAuth2 endpoints for X (formerly Twitter) user authentication.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://x.com/i/oauth2/authorize",
	TokenURL: "https://api.x.com/2/oauth2/token",
}

// DefaultScopes lets the bot read and write posts, look up its own account,
// and receive a refresh token (offline.access).
var DefaultScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}
