// Package catalog persists recording metadata, window plans, and reconciled
// transcripts in SQLite, and enforces the recording status machine.
package catalog
