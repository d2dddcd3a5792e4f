package auth

import (
	"context"

	"github.com/florianilch/postbot/internal/identity"
)

// Provider is the identity provider side of the authorization-code flow.
type Provider interface {
	// AuthLink builds an authorization URL with a fresh state and PKCE verifier.
	AuthLink(redirectURI string, scopes []string) (identity.AuthLink, error)

	// Exchange trades an authorization code and its verifier for a token pair.
	Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (identity.Grant, error)
}

// RefreshProvider renews a token pair from a refresh token.
type RefreshProvider interface {
	Refresh(ctx context.Context, refreshToken string) (identity.Grant, error)
}

// Compile-time check to ensure identity.Client serves both roles
var (
	_ Provider        = (*identity.Client)(nil)
	_ RefreshProvider = (*identity.Client)(nil)
)
