package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that cannot be repaired by
// normalization. Violations are caller errors and are never retried.
func (c *Config) Validate() error {
	var problems []string

	if c.Segmentation.WindowSeconds <= 0 {
		problems = append(problems, fmt.Sprintf("segmentation.window_seconds must be positive, got %d", c.Segmentation.WindowSeconds))
	}
	if c.Segmentation.OverlapSeconds < 0 {
		problems = append(problems, fmt.Sprintf("segmentation.overlap_seconds must not be negative, got %d", c.Segmentation.OverlapSeconds))
	}
	if c.Segmentation.WindowSeconds > 0 && c.Segmentation.OverlapSeconds >= c.Segmentation.WindowSeconds {
		problems = append(problems, fmt.Sprintf("segmentation.overlap_seconds (%d) must be smaller than window_seconds (%d)", c.Segmentation.OverlapSeconds, c.Segmentation.WindowSeconds))
	}

	switch c.Whisper.Task {
	case "transcribe", "translate":
	default:
		problems = append(problems, fmt.Sprintf("whisper.task must be %q or %q, got %q", "transcribe", "translate", c.Whisper.Task))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be %q or %q, got %q", "console", "json", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
