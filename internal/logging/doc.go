// Package logging configures slog with a compact console handler and a JSON
// handler, plus helpers for component loggers and context-derived fields.
package logging
