package audioanalysis

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// SilenceThresholdDB is the level below which audio counts as silence.
const SilenceThresholdDB = -35.0

// MinSilenceSeconds is the shortest span silencedetect reports.
const MinSilenceSeconds = 1.0

// SilenceSpan is one detected stretch of silence in recording time.
type SilenceSpan struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Stats summarizes a recording's loudness profile. Stored on the recording
// at ingest for diagnostics: a transcript that came back empty is a lot
// less surprising when the stats show 95% silence.
type Stats struct {
	MeanVolumeDB   float64       `json:"mean_volume_db"`
	MaxVolumeDB    float64       `json:"max_volume_db"`
	SilenceSpans   []SilenceSpan `json:"silence_spans,omitempty"`
	SilenceSeconds float64       `json:"silence_seconds"`
}

// Analyze runs ffmpeg's volumedetect and silencedetect filters over the
// whole recording and parses their log output.
func Analyze(ctx context.Context, ffmpegBinary, path string) (Stats, error) {
	filter := fmt.Sprintf("volumedetect,silencedetect=noise=%gdB:d=%g", SilenceThresholdDB, MinSilenceSeconds)
	cmd := exec.CommandContext(ctx, ffmpegBinary, //nolint:gosec
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-af", filter,
		"-f", "null", "-",
	)
	// Both filters log to stderr; ffmpeg exits 0 on success.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Stats{}, fmt.Errorf("ffmpeg analyze: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return parseStats(string(output)), nil
}

func parseStats(output string) Stats {
	stats := Stats{}
	var openSilence *SilenceSpan

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "mean_volume:"):
			stats.MeanVolumeDB = parseDB(line, "mean_volume:")
		case strings.Contains(line, "max_volume:"):
			stats.MaxVolumeDB = parseDB(line, "max_volume:")
		case strings.Contains(line, "silence_start:"):
			start := parseTrailingFloat(line, "silence_start:")
			openSilence = &SilenceSpan{Start: start}
		case strings.Contains(line, "silence_end:"):
			if openSilence == nil {
				continue
			}
			openSilence.End = parseTrailingFloat(line, "silence_end:")
			if dur := parseTrailingFloat(line, "silence_duration:"); dur > 0 {
				openSilence.Duration = dur
			} else {
				openSilence.Duration = openSilence.End - openSilence.Start
			}
			stats.SilenceSpans = append(stats.SilenceSpans, *openSilence)
			stats.SilenceSeconds += openSilence.Duration
			openSilence = nil
		}
	}
	return stats
}

func parseDB(line, marker string) float64 {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return 0
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	rest = strings.TrimSuffix(rest, "dB")
	value, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0
	}
	return value
}

func parseTrailingFloat(line, marker string) float64 {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return 0
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	if cut := strings.IndexAny(rest, " |"); cut >= 0 {
		rest = rest[:cut]
	}
	value, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0
	}
	return value
}
