package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.StagingDir,
		&c.Paths.BlobDir,
		&c.Paths.ArchiveDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.Task = strings.ToLower(strings.TrimSpace(c.Whisper.Task))
	c.Whisper.Language = strings.ToLower(strings.TrimSpace(c.Whisper.Language))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.Task == "" {
		c.Whisper.Task = defaultWhisperTask
	}
	if c.Whisper.BeamSize <= 0 {
		c.Whisper.BeamSize = defaultBeamSize
	}
	if c.Whisper.MaxConcurrent <= 0 {
		c.Whisper.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Whisper.HintChars <= 0 {
		c.Whisper.HintChars = defaultHintChars
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
