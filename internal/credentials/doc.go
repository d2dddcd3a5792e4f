// Package credentials holds the single live OAuth2 token set of the bot.
//
// Store is the authoritative in-memory copy. It can be backed by a Persister
// (see package tokenstore) which is loaded once at startup and written through
// on every change, so a login survives process restarts.
//
// A TokenSet is only accepted when it carries a refresh token: an access token
// alone cannot be renewed and is never stored.
package credentials
