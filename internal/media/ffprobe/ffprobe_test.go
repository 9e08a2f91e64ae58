package ffprobe_test

import (
	"testing"

	"scribe/internal/media/ffprobe"
)

func TestDurationSecondsPrefersFormat(t *testing.T) {
	result := ffprobe.Result{
		Format: ffprobe.Format{Duration: "123.45"},
		Streams: []ffprobe.Stream{
			{CodecType: "audio", Duration: "120.00"},
		},
	}
	if got := result.DurationSeconds(); got != 123.45 {
		t.Fatalf("DurationSeconds = %g", got)
	}
}

func TestDurationSecondsFallsBackToAudioStream(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "video"},
			{CodecType: "audio", Duration: "88.5"},
		},
	}
	if got := result.DurationSeconds(); got != 88.5 {
		t.Fatalf("DurationSeconds = %g", got)
	}
}

func TestSampleRate(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "audio", SampleRate: "44100", Channels: 2},
		},
	}
	if got := result.SampleRate(); got != 44100 {
		t.Fatalf("SampleRate = %d", got)
	}
}

func TestAudioStreamMissing(t *testing.T) {
	result := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}
	if _, ok := result.AudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
	if got := result.SampleRate(); got != 0 {
		t.Fatalf("SampleRate = %d, want 0", got)
	}
}
