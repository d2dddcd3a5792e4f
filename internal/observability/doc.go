// Package observability installs the process-wide slog logger, optionally
// exporting records through OpenTelemetry.
package observability
