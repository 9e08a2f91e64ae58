package segment

import (
	"fmt"

	"scribe/internal/services"
)

// Window is a bounded slice of a recording, described by offsets only. The
// planner never touches audio bytes; materialization is the caller's job.
type Window struct {
	Index    int
	Start    float64
	Duration float64
}

// End returns the exclusive end offset of the window in recording time.
func (w Window) End() float64 {
	return w.Start + w.Duration
}

// Plan cuts a recording of the given duration into fixed-length windows where
// consecutive windows share overlapSeconds of audio. All values are seconds.
//
// The first window starts at 0. Each window spans [start, min(start+window,
// duration)); when a window's end reaches the recording's duration it is the
// last one (possibly shorter than windowSeconds), otherwise the next window
// starts overlapSeconds before the current end.
func Plan(durationSeconds, windowSeconds, overlapSeconds float64) ([]Window, error) {
	if windowSeconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "segmenter", "plan",
			fmt.Sprintf("window length must be positive, got %gs", windowSeconds), nil)
	}
	if overlapSeconds < 0 {
		return nil, services.Wrap(services.ErrValidation, "segmenter", "plan",
			fmt.Sprintf("overlap must not be negative, got %gs", overlapSeconds), nil)
	}
	if overlapSeconds >= windowSeconds {
		return nil, services.Wrap(services.ErrValidation, "segmenter", "plan",
			fmt.Sprintf("overlap %gs must be smaller than window length %gs", overlapSeconds, windowSeconds), nil)
	}
	if durationSeconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "segmenter", "plan",
			fmt.Sprintf("recording duration must be positive, got %gs", durationSeconds), nil)
	}

	var windows []Window
	start := 0.0
	for {
		end := start + windowSeconds
		if end > durationSeconds {
			end = durationSeconds
		}
		windows = append(windows, Window{
			Index:    len(windows),
			Start:    start,
			Duration: end - start,
		})
		if end >= durationSeconds {
			return windows, nil
		}
		start = end - overlapSeconds
	}
}
