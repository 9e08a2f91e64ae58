package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.BlobDir = filepath.Join(base, "blobs")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSegmentation overrides window and overlap lengths on the test config.
func WithSegmentation(windowSeconds, overlapSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Segmentation.WindowSeconds = windowSeconds
		cfg.Segmentation.OverlapSeconds = overlapSeconds
	}
}

// WithoutArchive disables archival copies on the test config.
func WithoutArchive() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.ArchiveDir = ""
	}
}
