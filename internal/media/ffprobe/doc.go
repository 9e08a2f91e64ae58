// Package ffprobe shells out to ffprobe to read container and stream
// metadata from uploaded audio files.
package ffprobe
