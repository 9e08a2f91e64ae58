package audio

import (
	"context"
	"strings"
	"testing"
)

func TestBuildExtractArgs(t *testing.T) {
	args := buildExtractArgs("/in/rec.wav", 270, 300, "/out/window_1.wav")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-ss 270",
		"-t 300",
		"-i /in/rec.wav",
		"-ac 1",
		"-ar 16000",
		"-c:a pcm_s16le",
		"/out/window_1.wav",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestBuildExtractArgsFractionalOffsets(t *testing.T) {
	args := buildExtractArgs("in.wav", 4.5, 7.25, "out.wav")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-ss 4.5") || !strings.Contains(joined, "-t 7.25") {
		t.Fatalf("fractional offsets mangled: %s", joined)
	}
}

func TestExtractWindowRejectsBadRange(t *testing.T) {
	if err := ExtractWindow(context.Background(), "ffmpeg", "in.wav", -1, 10, "out.wav"); err == nil {
		t.Fatal("expected error for negative start")
	}
	if err := ExtractWindow(context.Background(), "ffmpeg", "in.wav", 0, 0, "out.wav"); err == nil {
		t.Fatal("expected error for zero duration")
	}
}
