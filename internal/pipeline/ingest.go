package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/blob"
	"scribe/internal/catalog"
	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/segment"
	"scribe/internal/services"
)

// recordedAtLayout matches capture-device filenames like
// recording_2024-11-26_14-00-00.wav.
const recordedAtLayout = "recording_2006-01-02_15-04-05"

// Ingest registers an audio file, cuts it into overlapping windows stored in
// the blob store, and leaves the recording chunked and ready for Process.
// The source file is archived on a best-effort basis; the original is never
// modified.
func (p *Pipeline) Ingest(ctx context.Context, sourcePath string) (*catalog.Recording, error) {
	ctx = services.WithStage(ctx, "ingest")

	sourcePath, err := config.ExpandPath(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "ingest", "resolve source path", err)
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "ingest",
			fmt.Sprintf("source %s", sourcePath), err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "ingest",
			fmt.Sprintf("source %s is a directory", sourcePath), nil)
	}

	probed, err := p.probe(ctx, p.cfg.FFprobeBinary(), sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrAudioUnreadable, "pipeline", "ingest", "probe source", err)
	}
	if _, ok := probed.AudioStream(); !ok {
		return nil, services.Wrap(services.ErrAudioUnreadable, "pipeline", "ingest",
			fmt.Sprintf("source %s has no audio stream", sourcePath), nil)
	}
	duration := probed.DurationSeconds()
	if duration <= 0 {
		return nil, services.Wrap(services.ErrAudioUnreadable, "pipeline", "ingest",
			fmt.Sprintf("source %s reports no duration", sourcePath), nil)
	}

	title := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	recordedAt := parseRecordedAt(title)
	if recordedAt == nil {
		mtime := info.ModTime()
		recordedAt = &mtime
	}

	plan, err := segment.Plan(duration,
		float64(p.cfg.Segmentation.WindowSeconds),
		float64(p.cfg.Segmentation.OverlapSeconds))
	if err != nil {
		return nil, err
	}

	statsJSON := p.analyzeLoudness(ctx, sourcePath)

	rec, err := p.store.NewRecording(ctx, catalog.NewRecordingParams{
		SourcePath:      sourcePath,
		Title:           title,
		DurationSeconds: duration,
		SampleRate:      probed.SampleRate(),
		RecordedAt:      recordedAt,
		AudioStatsJSON:  statsJSON,
	})
	if err != nil {
		return nil, err
	}

	ctx = services.WithRecordingID(ctx, rec.ID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("recording registered",
		logging.String("source", sourcePath),
		logging.Float64("duration_seconds", duration),
		logging.Int("windows", len(plan)),
	)

	windows, err := p.materializeWindows(ctx, rec.ID, sourcePath, plan)
	if err != nil {
		p.failIngest(ctx, rec.ID, err)
		return nil, err
	}

	if err := p.store.ReplaceWindows(ctx, rec.ID, windows); err != nil {
		p.failIngest(ctx, rec.ID, err)
		return nil, err
	}

	p.archiveSource(logger, sourcePath)

	rec, err = p.store.GetByID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("recording chunked", logging.Int("windows", len(windows)))
	return rec, nil
}

// materializeWindows extracts each planned window into staging and promotes
// it into the blob store.
func (p *Pipeline) materializeWindows(ctx context.Context, recordingID, sourcePath string, plan []segment.Window) ([]catalog.Window, error) {
	windows := make([]catalog.Window, 0, len(plan))
	for _, win := range plan {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrTransient, "pipeline", "ingest", "cancelled", err)
		}

		staged := filepath.Join(p.cfg.Paths.StagingDir,
			fmt.Sprintf("%s_window_%03d.wav", recordingID, win.Index))
		if err := p.extract(ctx, p.cfg.FFmpegBinary(), sourcePath, win.Start, win.Duration, staged); err != nil {
			return nil, services.Wrap(services.ErrAudioUnreadable, "pipeline", "ingest",
				fmt.Sprintf("extract window %d", win.Index), err)
		}

		key := blob.WindowKey(recordingID, win.Index)
		if err := p.blobs.Put(key, staged); err != nil {
			_ = os.Remove(staged)
			return nil, services.Wrap(services.ErrPersistence, "pipeline", "ingest",
				fmt.Sprintf("store window %d", win.Index), err)
		}

		windows = append(windows, catalog.Window{
			RecordingID:     recordingID,
			Index:           win.Index,
			StartSeconds:    win.Start,
			DurationSeconds: win.Duration,
			BlobKey:         key,
		})
	}
	return windows, nil
}

// analyzeLoudness runs the loudness profile. Analysis failures never block
// ingestion; the stats are diagnostics.
func (p *Pipeline) analyzeLoudness(ctx context.Context, sourcePath string) string {
	stats, err := p.analyze(ctx, p.cfg.FFmpegBinary(), sourcePath)
	if err != nil {
		p.logger.Warn("loudness analysis failed",
			logging.String("source", sourcePath), logging.Error(err))
		return ""
	}
	encoded, err := json.Marshal(stats)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// archiveSource copies the original into the archive directory. Failures are
// logged and swallowed; archival storage being offline must not fail ingest.
func (p *Pipeline) archiveSource(logger *slog.Logger, sourcePath string) {
	archiveDir := strings.TrimSpace(p.cfg.Paths.ArchiveDir)
	if archiveDir == "" {
		return
	}
	dest := filepath.Join(archiveDir, filepath.Base(sourcePath))
	if err := fileutil.CopyFileVerified(sourcePath, dest); err != nil {
		logger.Warn("archive copy failed",
			logging.String("source", sourcePath),
			logging.String("dest", dest),
			logging.Error(err),
		)
	}
}

func (p *Pipeline) failIngest(ctx context.Context, recordingID string, cause error) {
	if err := p.store.MarkFailed(ctx, recordingID, cause.Error()); err != nil {
		p.logger.Error("record ingest failure",
			logging.String(logging.FieldRecordingID, recordingID), logging.Error(err))
	}
	if err := p.blobs.RemovePrefix(recordingID); err != nil {
		p.logger.Warn("clean up window blobs",
			logging.String(logging.FieldRecordingID, recordingID), logging.Error(err))
	}
}

// parseRecordedAt recovers the capture timestamp from a recorder filename.
// Returns nil when the name doesn't follow the convention.
func parseRecordedAt(title string) *time.Time {
	ts, err := time.ParseInLocation(recordedAtLayout, title, time.Local)
	if err != nil {
		return nil
	}
	return &ts
}
