package whisper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/services"
	"scribe/internal/services/whisper"
	"scribe/internal/transcribe"
)

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "window_000.wav")
	if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribeParsesEngineOutput(t *testing.T) {
	client := whisper.NewClient(whisper.Config{Model: "large-v3", Task: "translate", BeamSize: 5, VADFilter: true})
	audioPath := writeAudio(t)

	var captured []string
	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != whisper.UVXCommand {
			t.Fatalf("command = %q, want uvx", name)
		}
		captured = args
		outputDir := argValue(args, "--output_dir")
		payload := `{"language":"en","language_probability":0.97,"segments":[` +
			`{"start":0.0,"end":2.5,"text":" Hello there."},` +
			`{"start":2.5,"end":4.0,"text":" General greeting."}]}`
		return os.WriteFile(filepath.Join(outputDir, "window_000.json"), []byte(payload), 0o644)
	})

	result, err := client.Transcribe(context.Background(), transcribe.Request{
		AudioPath:     audioPath,
		InitialPrompt: "previous tail",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Language != "en" || result.LanguageConfidence != 0.97 {
		t.Fatalf("language = %q (%v)", result.Language, result.LanguageConfidence)
	}
	if len(result.Segments) != 2 || result.Segments[1].End != 4.0 {
		t.Fatalf("segments = %+v", result.Segments)
	}

	if !hasArg(captured, whisper.WhisperCommand) {
		t.Fatalf("args missing CLI name: %v", captured)
	}
	if got := argValue(captured, "--model"); got != "large-v3" {
		t.Fatalf("--model = %q", got)
	}
	if got := argValue(captured, "--task"); got != "translate" {
		t.Fatalf("--task = %q", got)
	}
	if got := argValue(captured, "--beam_size"); got != "5" {
		t.Fatalf("--beam_size = %q", got)
	}
	if got := argValue(captured, "--vad_filter"); got != "True" {
		t.Fatalf("--vad_filter = %q", got)
	}
	if got := argValue(captured, "--initial_prompt"); got != "previous tail" {
		t.Fatalf("--initial_prompt = %q", got)
	}
	if got := argValue(captured, "--device"); got != whisper.CPUDevice {
		t.Fatalf("--device = %q", got)
	}
}

func TestTranscribeOmitsEmptyOptionalFlags(t *testing.T) {
	client := whisper.NewClient(whisper.Config{})
	audioPath := writeAudio(t)

	var captured []string
	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		captured = args
		outputDir := argValue(args, "--output_dir")
		return os.WriteFile(filepath.Join(outputDir, "window_000.json"),
			[]byte(`{"language":"en","segments":[]}`), 0o644)
	})

	if _, err := client.Transcribe(context.Background(), transcribe.Request{AudioPath: audioPath}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if hasArg(captured, "--language") {
		t.Fatalf("--language should be omitted when auto-detecting: %v", captured)
	}
	if hasArg(captured, "--initial_prompt") {
		t.Fatalf("--initial_prompt should be omitted without a hint: %v", captured)
	}
	if got := argValue(captured, "--model"); got != whisper.DefaultModel {
		t.Fatalf("default model = %q", got)
	}
}

func TestTranscribeCUDAArgs(t *testing.T) {
	client := whisper.NewClient(whisper.Config{CUDAEnabled: true})
	audioPath := writeAudio(t)

	var captured []string
	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		captured = args
		outputDir := argValue(args, "--output_dir")
		return os.WriteFile(filepath.Join(outputDir, "window_000.json"),
			[]byte(`{"language":"en","segments":[]}`), 0o644)
	})

	if _, err := client.Transcribe(context.Background(), transcribe.Request{AudioPath: audioPath}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := argValue(captured, "--device"); got != whisper.CUDADevice {
		t.Fatalf("--device = %q", got)
	}
	if got := argValue(captured, "--index-url"); got != whisper.CUDAIndexURL {
		t.Fatalf("--index-url = %q", got)
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	client := whisper.NewClient(whisper.Config{})
	audioPath := writeAudio(t)

	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 1")
	})

	_, err := client.Transcribe(context.Background(), transcribe.Request{AudioPath: audioPath})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	client := whisper.NewClient(whisper.Config{})
	audioPath := writeAudio(t)

	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	_, err := client.Transcribe(context.Background(), transcribe.Request{AudioPath: audioPath})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestTranscribeRequiresAudioPath(t *testing.T) {
	client := whisper.NewClient(whisper.Config{})
	_, err := client.Transcribe(context.Background(), transcribe.Request{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
