package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/textutil"
)

// Options tunes the transcriber wrapper around an engine.
type Options struct {
	// MaxConcurrent bounds simultaneous engine invocations across all
	// recordings. The model is a shared resource; on a GPU host this is
	// effectively 1.
	MaxConcurrent int
	// HintChars caps the context hint passed to the engine.
	HintChars int
	// Timeout bounds a single window transcription. Zero disables.
	Timeout time.Duration
}

// Transcriber invokes an Engine for one window at a time, applying the
// admission gate, hint budget, and result normalization.
type Transcriber struct {
	engine    Engine
	gate      *semaphore.Weighted
	hintChars int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewTranscriber wraps an engine. A nil logger disables logging.
func NewTranscriber(engine Engine, opts Options, logger *slog.Logger) (*Transcriber, error) {
	if engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcriber", "new", "engine is required", nil)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.HintChars <= 0 {
		opts.HintChars = 300
	}
	return &Transcriber{
		engine:    engine,
		gate:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		hintChars: opts.HintChars,
		timeout:   opts.Timeout,
		logger:    logging.NewComponentLogger(logger, "transcriber"),
	}, nil
}

// HintChars returns the configured context hint budget.
func (t *Transcriber) HintChars() int {
	return t.hintChars
}

// TranscribeWindow runs the engine on one window's audio. The result is
// all-or-nothing: any engine failure surfaces as a transcription error
// carrying the window index and no partial result.
func (t *Transcriber) TranscribeWindow(ctx context.Context, windowIndex int, windowDuration float64, audioPath, hint string) (WindowResult, error) {
	if audioPath == "" {
		return WindowResult{}, services.Wrap(services.ErrValidation, "transcriber",
			fmt.Sprintf("window %d", windowIndex), "audio path is required", nil)
	}

	if err := t.gate.Acquire(ctx, 1); err != nil {
		return WindowResult{}, services.Wrap(services.ErrTranscription, "transcriber",
			fmt.Sprintf("window %d", windowIndex), "cancelled while waiting for engine", err)
	}
	defer t.gate.Release(1)

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := t.engine.Transcribe(runCtx, Request{
		AudioPath:     audioPath,
		InitialPrompt: textutil.Tail(hint, t.hintChars),
	})
	if err != nil {
		return WindowResult{}, services.Wrap(services.ErrTranscription, "transcriber",
			fmt.Sprintf("window %d", windowIndex), "engine invocation failed", err)
	}

	normalized := normalizeResult(result, windowDuration)
	t.logger.Debug("window transcribed",
		logging.Int("window_index", windowIndex),
		logging.Int("segments", len(normalized.Segments)),
		logging.String("language", normalized.Language),
		logging.Duration("elapsed", time.Since(started)),
	)

	return WindowResult{WindowIndex: windowIndex, Result: normalized}, nil
}

// normalizeResult enforces the per-window guarantees: segments ordered by
// start, timestamps within [0, duration], no empty texts.
func normalizeResult(result Result, duration float64) Result {
	kept := make([]Segment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		if normalized, ok := normalizeSegment(seg, duration); ok {
			kept = append(kept, normalized)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})
	result.Segments = kept
	return result
}
