// Package social is a minimal X API v2 client for the bot account. Requests
// are authorized with the bot's OAuth2 access token, which is refreshed on
// demand through an oauth2.TokenSource.
package social
