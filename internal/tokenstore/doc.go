// Package tokenstore provides durable storage backends for the bot's OAuth2 token set.
//
// Every backend implements credentials.Persister:
//   - File: Local JSON file with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: Read-only refresh token seed from an environment variable
//   - Redis: Single key in a Redis database, shared between instances
//   - SQLite: Single row in a local SQLite database (GORM)
//   - Postgres: Single row in a PostgreSQL table
//
// Env storage cannot record rotated refresh tokens, so a seeded login only
// lasts until the provider invalidates the seed.
package tokenstore
