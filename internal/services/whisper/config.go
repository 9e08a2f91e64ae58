package whisper

// Config captures runtime settings for the faster-whisper CLI.
type Config struct {
	// Model is the whisper model to use (e.g., "large-v3").
	Model string
	// Task selects transcription or translation to English.
	Task string
	// Language forces a source language; empty enables auto-detection.
	Language string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// BeamSize is the decode beam width.
	BeamSize int
	// VADFilter enables voice activity filtering before decode.
	VADFilter bool
}

// Engine configuration constants.
const (
	DefaultModel    = "large-v3"
	DefaultTask     = "translate"
	DefaultBeamSize = 5
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	CPUComputeType  = "int8"
	CUDAComputeType = "float16"
	OutputFormat    = "json"
)

// Command names for external tools.
const (
	UVXCommand     = "uvx"
	WhisperCommand = "whisper-ctranslate2"
)
