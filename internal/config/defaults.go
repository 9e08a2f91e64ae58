package config

const (
	defaultStagingDir     = "~/.local/share/scribe/staging"
	defaultBlobDir        = "~/.local/share/scribe/blobs"
	defaultArchiveDir     = "~/.local/share/scribe/archive"
	defaultLogDir         = "~/.local/share/scribe/logs"
	defaultWindowSeconds  = 300
	defaultOverlapSeconds = 30
	defaultWhisperModel   = "large-v3"
	defaultWhisperTask    = "translate"
	defaultBeamSize       = 5
	defaultMaxConcurrent  = 1
	defaultHintChars      = 300
	defaultTimeoutSeconds = 600
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			BlobDir:    defaultBlobDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
		},
		Segmentation: Segmentation{
			WindowSeconds:  defaultWindowSeconds,
			OverlapSeconds: defaultOverlapSeconds,
		},
		Whisper: Whisper{
			Model:          defaultWhisperModel,
			Task:           defaultWhisperTask,
			BeamSize:       defaultBeamSize,
			VADFilter:      true,
			MaxConcurrent:  defaultMaxConcurrent,
			HintChars:      defaultHintChars,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
