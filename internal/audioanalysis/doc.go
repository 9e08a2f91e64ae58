// Package audioanalysis derives loudness and silence diagnostics from a
// recording using ffmpeg's volumedetect and silencedetect filters.
package audioanalysis
