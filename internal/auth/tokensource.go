package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// refresherTokenSource adapts a Refresher to oauth2.TokenSource.
type refresherTokenSource struct {
	ctx       context.Context
	refresher *Refresher
}

// Compile-time check to ensure refresherTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*refresherTokenSource)(nil)

// TokenSource returns an oauth2.TokenSource bound to ctx, for use with
// oauth2.Transport. oauth2.TokenSource.Token() has no context parameter, so the
// context is captured here instead.
func (r *Refresher) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &refresherTokenSource{ctx: ctx, refresher: r}
}

// Token returns the current access token as a bearer token.
func (s *refresherTokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := s.refresher.AccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
