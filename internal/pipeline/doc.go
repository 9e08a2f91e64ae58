// Package pipeline orchestrates the recording lifecycle from ingestion
// through windowed transcription to the reconciled transcript.
package pipeline
