package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/catalog"
	"scribe/internal/logging"
	"scribe/internal/merge"
	"scribe/internal/segment"
	"scribe/internal/services"
)

// Process transcribes every window of a chunked recording in order and saves
// the reconciled transcript. Each window's merged text seeds the next
// window's context hint. A recording that already completed or failed may be
// processed again; the prior transcript is replaced wholesale.
//
// The run is all-or-nothing: any window failure moves the recording to
// failed with the failing window recorded, and no transcript is kept.
func (p *Pipeline) Process(ctx context.Context, recordingID string) (merge.Transcript, error) {
	ctx = services.WithStage(services.WithRecordingID(ctx, recordingID), "process")
	logger := logging.WithContext(ctx, p.logger)

	unlock, err := p.acquireLock(recordingID)
	if err != nil {
		return merge.Transcript{}, err
	}
	defer unlock()

	if err := p.store.MarkProcessing(ctx, recordingID); err != nil {
		return merge.Transcript{}, err
	}

	windows, err := p.store.WindowsByRecording(ctx, recordingID)
	if err != nil {
		p.failProcessing(ctx, recordingID, -1, err)
		return merge.Transcript{}, err
	}
	if len(windows) == 0 {
		err := services.Wrap(services.ErrPersistence, "pipeline", "process",
			fmt.Sprintf("recording %s is chunked but has no windows", recordingID), nil)
		p.failProcessing(ctx, recordingID, -1, err)
		return merge.Transcript{}, err
	}

	logger.Info("processing started", logging.Int("windows", len(windows)))
	started := time.Now()

	builder := merge.NewBuilder(float64(p.cfg.Segmentation.OverlapSeconds))
	hint := ""
	for _, win := range windows {
		if err := ctx.Err(); err != nil {
			wrapped := services.Wrap(services.ErrTranscription, "pipeline", "process",
				fmt.Sprintf("cancelled before window %d", win.Index), err)
			p.failProcessing(ctx, recordingID, win.Index, wrapped)
			return merge.Transcript{}, wrapped
		}

		mergedText, rawText, err := p.processWindow(ctx, builder, win, hint)
		if err != nil {
			p.failProcessing(ctx, recordingID, win.Index, err)
			return merge.Transcript{}, err
		}
		// A window with no text at all (silence) keeps the previous hint so
		// continuity survives into the window after it.
		if next := merge.NextHint(mergedText, rawText, p.transcriber.HintChars()); next != "" {
			hint = next
		}

		if err := p.store.SetWindowProgress(ctx, recordingID, win.Index); err != nil {
			logger.Warn("record window progress", logging.Int(logging.FieldWindowIndex, win.Index), logging.Error(err))
		}
	}

	transcript := builder.Transcript()
	if err := p.store.SaveTranscript(ctx, recordingID, transcript); err != nil {
		p.failProcessing(ctx, recordingID, windows[len(windows)-1].Index, err)
		return merge.Transcript{}, err
	}

	logger.Info("processing completed",
		logging.Int("windows", len(windows)),
		logging.Int("segments", len(transcript.Segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return transcript, nil
}

// processWindow transcribes one window and folds it into the builder,
// returning the merged (overlap-trimmed) and raw texts for hint derivation.
func (p *Pipeline) processWindow(ctx context.Context, builder *merge.Builder, win catalog.Window, hint string) (string, string, error) {
	ctx = services.WithWindowIndex(ctx, win.Index)

	audioPath, err := p.blobs.Path(win.BlobKey)
	if err != nil {
		return "", "", services.Wrap(services.ErrPersistence, "pipeline", "process",
			fmt.Sprintf("resolve window %d blob", win.Index), err)
	}
	exists, err := p.blobs.Exists(win.BlobKey)
	if err != nil {
		return "", "", services.Wrap(services.ErrPersistence, "pipeline", "process",
			fmt.Sprintf("stat window %d blob", win.Index), err)
	}
	if !exists {
		return "", "", services.Wrap(services.ErrPersistence, "pipeline", "process",
			fmt.Sprintf("window %d audio missing", win.Index), nil)
	}

	result, err := p.transcriber.TranscribeWindow(ctx, win.Index, win.DurationSeconds, audioPath, hint)
	if err != nil {
		return "", "", err
	}

	mergedText, err := builder.Add(segment.Window{
		Index:    win.Index,
		Start:    win.StartSeconds,
		Duration: win.DurationSeconds,
	}, result)
	if err != nil {
		return "", "", err
	}
	return mergedText, result.FullText(), nil
}

func (p *Pipeline) failProcessing(ctx context.Context, recordingID string, windowIndex int, cause error) {
	// The failure must be recorded even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, p.logger)
	logger.Error("processing failed",
		logging.Int(logging.FieldWindowIndex, windowIndex), logging.Error(cause))
	if err := p.store.MarkFailed(ctx, recordingID, cause.Error()); err != nil {
		logger.Error("record processing failure", logging.Error(err))
	}
}

// acquireLock takes a per-recording file lock so two scribe processes cannot
// race past the catalog's status guard on separate database snapshots.
func (p *Pipeline) acquireLock(recordingID string) (func(), error) {
	lockDir := filepath.Join(p.cfg.Paths.LogDir, "locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "pipeline", "process", "create lock dir", err)
	}

	lock := flock.New(filepath.Join(lockDir, recordingID+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "pipeline", "process", "acquire lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, "pipeline", "process",
			fmt.Sprintf("recording %s locked by another process", recordingID), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
