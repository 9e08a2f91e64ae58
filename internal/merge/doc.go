// Package merge reconciles overlapping per-window transcriptions into one
// continuous transcript with global timestamps, and derives the context
// hint carried from one window to the next.
package merge
