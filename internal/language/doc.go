// Package language normalizes detected language codes so the per-recording
// language set collapses spelling variants of the same language.
package language
