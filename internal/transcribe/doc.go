// Package transcribe wraps the speech-to-text engine for single-window
// invocations: admission control for the shared model, context hint
// budgeting, and normalization of the engine's timestamped segments.
package transcribe
