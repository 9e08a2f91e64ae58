package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExtractWindow cuts [startSeconds, startSeconds+durationSeconds) out of the
// source file as a mono 16kHz PCM WAV, the input format the inference engine
// expects. Offsets are fractional seconds.
func ExtractWindow(ctx context.Context, ffmpegBinary, source string, startSeconds, durationSeconds float64, dest string) error {
	if durationSeconds <= 0 {
		return fmt.Errorf("extract window: invalid duration %g", durationSeconds)
	}
	if startSeconds < 0 {
		return fmt.Errorf("extract window: invalid start %g", startSeconds)
	}
	args := buildExtractArgs(source, startSeconds, durationSeconds, dest)
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract window: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildExtractArgs(source string, startSeconds, durationSeconds float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSeconds),
		"-t", formatSeconds(durationSeconds),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
