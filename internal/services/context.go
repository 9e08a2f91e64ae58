package services

import "context"

type contextKey string

const (
	recordingIDKey contextKey = "recording_id"
	windowIndexKey contextKey = "window_index"
	stageKey       contextKey = "stage"
)

// WithRecordingID annotates context with the recording identifier.
func WithRecordingID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, recordingIDKey, id)
}

// RecordingIDFromContext extracts the recording identifier if present.
func RecordingIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recordingIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWindowIndex annotates context with the window currently being transcribed.
func WithWindowIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, windowIndexKey, index)
}

// WindowIndexFromContext extracts the window index if present.
func WindowIndexFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(windowIndexKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
