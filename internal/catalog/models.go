package catalog

import (
	"strings"
	"time"
)

// Status represents the processing lifecycle of a recording.
type Status string

const (
	StatusPending    Status = "pending"
	StatusChunked    Status = "chunked"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusChunked,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// startableStatuses are the states Process may claim a recording from.
// pending is excluded: segmentation has not produced windows yet.
var startableStatuses = map[Status]struct{}{
	StatusChunked:   {},
	StatusFailed:    {},
	StatusCompleted: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Startable reports whether Process may claim a recording in this status.
func (s Status) Startable() bool {
	_, ok := startableStatuses[s]
	return ok
}

// Recording is a registered upload persisted in SQLite.
type Recording struct {
	ID              string
	SourcePath      string
	Title           string
	Status          Status
	DurationSeconds float64
	SampleRate      int
	RecordedAt      *time.Time
	AudioStatsJSON  string
	ErrorMessage    string
	// LastWindowIndex is the highest window index that finished
	// transcription in the current or most recent attempt. Retained on
	// failure for diagnosis.
	LastWindowIndex *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Window is one stored window descriptor. Audio bytes live in the blob
// store under BlobKey.
type Window struct {
	RecordingID     string
	Index           int
	StartSeconds    float64
	DurationSeconds float64
	BlobKey         string
}

// StatusCounts aggregates recordings per lifecycle state.
type StatusCounts map[Status]int
