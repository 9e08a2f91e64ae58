// Package audio materializes window payloads from a source recording via
// ffmpeg.
package audio
