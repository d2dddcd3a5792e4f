// Package identity talks to the OAuth2 identity provider of X on behalf of the bot.
//
// It covers the three provider calls of the authorization-code flow with PKCE:
//   - AuthLink builds the authorization URL together with a fresh state and code verifier
//   - Exchange trades an authorization code and its verifier for tokens
//   - Refresh trades a refresh token for a new token pair
//
// # Usage
//
//	client, err := identity.New(clientID, clientSecret)
//	link, err := client.AuthLink(redirectURI, identity.DefaultScopes)
//	// redirect the user to link.URL, remember link.State and link.CodeVerifier
//	grant, err := client.Exchange(ctx, code, link.CodeVerifier, redirectURI)
//
// # Custom Base Transport
//
// Configure a custom base transport for token requests (e.g., for proxies or tests):
//
//	client, err := identity.New(
//		clientID,
//		clientSecret,
//		identity.WithTransport(customTransport),
//	)
package identity
