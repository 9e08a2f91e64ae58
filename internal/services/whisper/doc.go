// Package whisper invokes the faster-whisper CLI through uvx and adapts its
// JSON output to the transcription engine interface.
package whisper
