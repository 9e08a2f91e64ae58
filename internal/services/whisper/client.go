package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

// Client runs whisper-ctranslate2 through uvx. It implements
// transcribe.Engine; one Transcribe call is one CLI invocation.
type Client struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewClient creates an engine client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Task == "" {
		cfg.Task = DefaultTask
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = DefaultBeamSize
	}
	return &Client{cfg: cfg}
}

// NewClientFromConfig builds an engine client from application configuration.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(Config{
		Model:       cfg.Whisper.Model,
		Task:        cfg.Whisper.Task,
		Language:    cfg.Whisper.Language,
		CUDAEnabled: cfg.Whisper.CUDAEnabled,
		BeamSize:    cfg.Whisper.BeamSize,
		VADFilter:   cfg.Whisper.VADFilter,
	})
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// Model returns the configured model name for logging.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Transcribe runs the CLI on one audio file and parses its JSON output.
func (c *Client) Transcribe(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
	var result transcribe.Result

	if req.AudioPath == "" {
		return result, services.Wrap(services.ErrValidation, "whisper", "transcribe", "audio path required", nil)
	}

	outputDir, err := os.MkdirTemp(filepath.Dir(req.AudioPath), "whisper-out-")
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	args := c.buildArgs(req, outputDir)
	if err := c.run(ctx, UVXCommand, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "run engine", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	result, err = loadResult(jsonPath)
	if err != nil {
		return transcribe.Result{}, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "read engine output", err)
	}
	return result, nil
}

// buildArgs constructs the uvx command arguments.
func (c *Client) buildArgs(req transcribe.Request, outputDir string) []string {
	args := make([]string, 0, 24)

	if c.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		WhisperCommand,
		req.AudioPath,
		"--model", c.cfg.Model,
		"--task", c.cfg.Task,
		"--beam_size", strconv.Itoa(c.cfg.BeamSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_filter", pythonBool(c.cfg.VADFilter),
	)

	if c.cfg.Language != "" {
		args = append(args, "--language", c.cfg.Language)
	}
	if req.InitialPrompt != "" {
		args = append(args, "--initial_prompt", req.InitialPrompt)
	}

	if c.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice, "--compute_type", CUDAComputeType)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

func (c *Client) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// The CLI takes python-literal booleans for flag values.
func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// enginePayload is the JSON structure the CLI writes next to the audio.
type enginePayload struct {
	Language            string               `json:"language"`
	LanguageProbability float64              `json:"language_probability"`
	Segments            []transcribe.Segment `json:"segments"`
}

func loadResult(jsonPath string) (transcribe.Result, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return transcribe.Result{}, err
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return transcribe.Result{}, fmt.Errorf("parse engine json: %w", err)
	}
	return transcribe.Result{
		Segments:           payload.Segments,
		Language:           payload.Language,
		LanguageConfidence: payload.LanguageProbability,
	}, nil
}
