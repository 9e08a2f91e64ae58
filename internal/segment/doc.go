// Package segment plans the overlapping transcription windows for a
// recording. Planning is deterministic: the same duration and parameters
// always yield the same windows, which keeps reprocessing idempotent.
package segment
