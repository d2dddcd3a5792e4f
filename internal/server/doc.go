// Package server exposes the bot over HTTP: the login flow, manual posting
// and a health check.
package server
