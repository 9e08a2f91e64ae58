package pipeline

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/audioanalysis"
	"scribe/internal/blob"
	"scribe/internal/catalog"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media/audio"
	"scribe/internal/media/ffprobe"
	"scribe/internal/merge"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

// Pipeline coordinates the recording lifecycle: ingestion cuts a recording
// into overlapping windows, processing transcribes them and reconciles the
// results into one transcript.
type Pipeline struct {
	cfg         *config.Config
	store       *catalog.Store
	blobs       *blob.Store
	transcriber *transcribe.Transcriber
	logger      *slog.Logger

	// Media shell-outs, replaceable in tests.
	probe   func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	extract func(ctx context.Context, binary, source string, start, duration float64, dest string) error
	analyze func(ctx context.Context, binary, path string) (audioanalysis.Stats, error)
}

// New wires a pipeline from configuration, an open catalog store, and a
// transcription engine.
func New(cfg *config.Config, store *catalog.Store, engine transcribe.Engine, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "catalog store is required", nil)
	}

	blobs, err := blob.NewStore(cfg.Paths.BlobDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "open blob store", err)
	}

	transcriber, err := transcribe.NewTranscriber(engine, transcribe.Options{
		MaxConcurrent: cfg.Whisper.MaxConcurrent,
		HintChars:     cfg.Whisper.HintChars,
		Timeout:       time.Duration(cfg.Whisper.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:         cfg,
		store:       store,
		blobs:       blobs,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		probe:       ffprobe.Inspect,
		extract:     audio.ExtractWindow,
		analyze:     audioanalysis.Analyze,
	}, nil
}

// Status returns the catalog record for one recording.
func (p *Pipeline) Status(ctx context.Context, recordingID string) (*catalog.Recording, error) {
	return p.store.GetByID(ctx, recordingID)
}

// List returns recordings, optionally filtered by status.
func (p *Pipeline) List(ctx context.Context, statuses ...catalog.Status) ([]*catalog.Recording, error) {
	return p.store.List(ctx, statuses...)
}

// Transcript returns the reconciled transcript of a completed recording.
func (p *Pipeline) Transcript(ctx context.Context, recordingID string) (merge.Transcript, error) {
	return p.store.GetTranscript(ctx, recordingID)
}

// Stats returns recording counts per status.
func (p *Pipeline) Stats(ctx context.Context) (catalog.StatusCounts, error) {
	return p.store.Stats(ctx)
}

// RecoverStuck returns recordings left in processing by a crashed run to the
// chunked state.
func (p *Pipeline) RecoverStuck(ctx context.Context) ([]string, error) {
	ids, err := p.store.ResetStuckProcessing(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p.logger.Warn("recovered stuck recording", logging.String(logging.FieldRecordingID, id))
	}
	return ids, nil
}
