// Command scribe ingests long audio recordings, transcribes them in
// overlapping windows through faster-whisper, and serves the reconciled
// transcripts.
package main
