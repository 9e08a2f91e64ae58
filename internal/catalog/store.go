package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/merge"
	"scribe/internal/services"
)

const component = "catalog"

// Store wraps the SQLite catalog database. All methods are safe for
// concurrent use by multiple goroutines within one process.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database in the
// configured log directory.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	return OpenPath(ctx, filepath.Join(cfg.Paths.LogDir, "catalog.db"))
}

// OpenPath opens a catalog database at an explicit location.
func OpenPath(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "open", "open database", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn between concurrent transactions.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrPersistence, component, "open", "initialize schema", err)
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRecordingParams carries ingestion metadata for a new recording row.
type NewRecordingParams struct {
	SourcePath      string
	Title           string
	DurationSeconds float64
	SampleRate      int
	RecordedAt      *time.Time
	AudioStatsJSON  string
}

// NewRecording registers a recording in the pending state and returns it.
func (s *Store) NewRecording(ctx context.Context, params NewRecordingParams) (*Recording, error) {
	now := time.Now().UTC()
	rec := &Recording{
		ID:              uuid.NewString(),
		SourcePath:      params.SourcePath,
		Title:           params.Title,
		Status:          StatusPending,
		DurationSeconds: params.DurationSeconds,
		SampleRate:      params.SampleRate,
		RecordedAt:      params.RecordedAt,
		AudioStatsJSON:  params.AudioStatsJSON,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (
			id, source_path, title, status, duration_seconds, sample_rate,
			recorded_at, audio_stats_json, error_message, last_window_index,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		rec.ID, rec.SourcePath, rec.Title, string(rec.Status),
		rec.DurationSeconds, rec.SampleRate,
		nullableTime(rec.RecordedAt), nullableString(rec.AudioStatsJSON),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "new recording", "insert", err)
	}
	return rec, nil
}

// GetByID fetches one recording.
func (s *Store) GetByID(ctx context.Context, id string) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, selectRecording+" WHERE id = ?", id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, component, "get", fmt.Sprintf("recording %s", id), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "get", "scan recording", err)
	}
	return rec, nil
}

// List returns recordings ordered newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Recording, error) {
	query := selectRecording
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "query recordings", err)
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, component, "list", "scan recording", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "iterate recordings", err)
	}
	return recordings, nil
}

// ReplaceWindows stores the window plan for a recording and moves it to
// chunked in one transaction. Re-ingesting a recording replaces any prior
// plan; a recording mid-processing cannot be re-chunked.
func (s *Store) ReplaceWindows(ctx context.Context, recordingID string, windows []Window) error {
	if len(windows) == 0 {
		return services.Wrap(services.ErrValidation, component, "replace windows", "no windows supplied", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "replace windows", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE recordings
		SET status = ?, error_message = NULL, last_window_index = NULL, updated_at = ?
		WHERE id = ? AND status != ?`,
		string(StatusChunked), formatTime(time.Now().UTC()), recordingID, string(StatusProcessing),
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "replace windows", "update status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "replace windows", "rows affected", err)
	}
	if affected != 1 {
		// Lookup must stay on this tx: the pool has a single connection.
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM recordings WHERE id = ?", recordingID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, component, "replace windows",
				fmt.Sprintf("recording %s", recordingID), nil)
		}
		if err != nil {
			return services.Wrap(services.ErrPersistence, component, "replace windows", "query status", err)
		}
		return services.Wrap(services.ErrBusy, component, "replace windows",
			fmt.Sprintf("recording %s is %s", recordingID, current), nil)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM windows WHERE recording_id = ?", recordingID); err != nil {
		return services.Wrap(services.ErrPersistence, component, "replace windows", "clear old windows", err)
	}
	for _, win := range windows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO windows (recording_id, idx, start_seconds, duration_seconds, blob_key)
			VALUES (?, ?, ?, ?, ?)`,
			recordingID, win.Index, win.StartSeconds, win.DurationSeconds, win.BlobKey,
		)
		if err != nil {
			return services.Wrap(services.ErrPersistence, component, "replace windows",
				fmt.Sprintf("insert window %d", win.Index), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, component, "replace windows", "commit", err)
	}
	return nil
}

// WindowsByRecording returns the stored window plan ordered by index.
func (s *Store) WindowsByRecording(ctx context.Context, recordingID string) ([]Window, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recording_id, idx, start_seconds, duration_seconds, blob_key
		FROM windows WHERE recording_id = ? ORDER BY idx`, recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "windows", "query", err)
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var win Window
		if err := rows.Scan(&win.RecordingID, &win.Index, &win.StartSeconds, &win.DurationSeconds, &win.BlobKey); err != nil {
			return nil, services.Wrap(services.ErrPersistence, component, "windows", "scan", err)
		}
		windows = append(windows, win)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "windows", "iterate", err)
	}
	return windows, nil
}

// MarkProcessing claims a recording for transcription. The guarded update is
// the mutual exclusion point: only one caller can flip a startable recording
// into processing.
func (s *Store) MarkProcessing(ctx context.Context, recordingID string) error {
	placeholders := make([]string, 0, len(allStatuses))
	args := []any{string(StatusProcessing), formatTime(time.Now().UTC()), recordingID}
	for _, status := range allStatuses {
		if !status.Startable() {
			continue
		}
		placeholders = append(placeholders, "?")
		args = append(args, string(status))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE recordings
		SET status = ?, error_message = NULL, last_window_index = NULL, updated_at = ?
		WHERE id = ? AND status IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "mark processing", "update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "mark processing", "rows affected", err)
	}
	if affected == 1 {
		return nil
	}

	rec, err := s.GetByID(ctx, recordingID)
	if err != nil {
		return err
	}
	switch rec.Status {
	case StatusProcessing:
		return services.Wrap(services.ErrBusy, component, "mark processing",
			fmt.Sprintf("recording %s", recordingID), nil)
	case StatusPending:
		return services.Wrap(services.ErrValidation, component, "mark processing",
			fmt.Sprintf("recording %s has no windows yet", recordingID), nil)
	default:
		return services.Wrap(services.ErrPersistence, component, "mark processing",
			fmt.Sprintf("recording %s in unexpected status %s", recordingID, rec.Status), nil)
	}
}

// SetWindowProgress records the latest finished window index while a
// recording is processing.
func (s *Store) SetWindowProgress(ctx context.Context, recordingID string, windowIndex int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE recordings SET last_window_index = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		windowIndex, formatTime(time.Now().UTC()), recordingID, string(StatusProcessing),
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "window progress", "update", err)
	}
	return nil
}

// MarkFailed moves a recording to failed, recording the failure message.
// last_window_index is left alone: it tracks the last window that finished,
// which is exactly what a failed recording should still report.
func (s *Store) MarkFailed(ctx context.Context, recordingID string, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE recordings SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(StatusFailed), message, formatTime(time.Now().UTC()), recordingID,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "mark failed", "update", err)
	}
	return nil
}

// SaveTranscript persists the reconciled transcript and flips the recording
// to completed in a single transaction, so a completed recording always has
// a transcript to serve.
func (s *Store) SaveTranscript(ctx context.Context, recordingID string, transcript merge.Transcript) error {
	segmentsJSON, err := json.Marshal(transcript.Segments)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "encode segments", err)
	}
	languagesJSON, err := json.Marshal(transcript.Languages)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "encode languages", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (recording_id, full_text, segments_json, languages, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(recording_id) DO UPDATE SET
			full_text = excluded.full_text,
			segments_json = excluded.segments_json,
			languages = excluded.languages,
			created_at = excluded.created_at`,
		recordingID, transcript.FullText, string(segmentsJSON), string(languagesJSON), now,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "upsert transcript", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE recordings SET status = ?, error_message = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusCompleted), now, recordingID, string(StatusProcessing),
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "update status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "rows affected", err)
	}
	if affected != 1 {
		return services.Wrap(services.ErrPersistence, component, "save transcript",
			fmt.Sprintf("recording %s is not processing", recordingID), nil)
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, component, "save transcript", "commit", err)
	}
	return nil
}

// GetTranscript returns the reconciled transcript of a completed recording.
func (s *Store) GetTranscript(ctx context.Context, recordingID string) (merge.Transcript, error) {
	rec, err := s.GetByID(ctx, recordingID)
	if err != nil {
		return merge.Transcript{}, err
	}
	if rec.Status != StatusCompleted {
		return merge.Transcript{}, services.Wrap(services.ErrNotReady, component, "get transcript",
			fmt.Sprintf("recording %s is %s", recordingID, rec.Status), nil)
	}

	var fullText, segmentsJSON, languagesJSON string
	err = s.db.QueryRowContext(ctx,
		"SELECT full_text, segments_json, languages FROM transcripts WHERE recording_id = ?", recordingID,
	).Scan(&fullText, &segmentsJSON, &languagesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		// completed without a transcript means the invariant was broken
		// outside this process; surface it as corruption, not not-ready.
		return merge.Transcript{}, services.Wrap(services.ErrPersistence, component, "get transcript",
			fmt.Sprintf("recording %s completed but transcript row missing", recordingID), nil)
	}
	if err != nil {
		return merge.Transcript{}, services.Wrap(services.ErrPersistence, component, "get transcript", "query", err)
	}

	transcript := merge.Transcript{FullText: fullText}
	if err := json.Unmarshal([]byte(segmentsJSON), &transcript.Segments); err != nil {
		return merge.Transcript{}, services.Wrap(services.ErrPersistence, component, "get transcript", "decode segments", err)
	}
	if err := json.Unmarshal([]byte(languagesJSON), &transcript.Languages); err != nil {
		return merge.Transcript{}, services.Wrap(services.ErrPersistence, component, "get transcript", "decode languages", err)
	}
	return transcript, nil
}

// ResetStuckProcessing moves recordings left in processing by a crashed run
// back to chunked so they can be claimed again. Returns the recording IDs
// that were reset.
func (s *Store) ResetStuckProcessing(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM recordings WHERE status = ?", string(StatusProcessing))
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "reset stuck", "query", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, services.Wrap(services.ErrPersistence, component, "reset stuck", "scan", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "reset stuck", "iterate", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE recordings SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusChunked), formatTime(time.Now().UTC()), string(StatusProcessing),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "reset stuck", "update", err)
	}
	return ids, nil
}

// Stats returns recording counts per status.
func (s *Store) Stats(ctx context.Context) (StatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM recordings GROUP BY status")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "stats", "query", err)
	}
	defer rows.Close()

	counts := make(StatusCounts)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, services.Wrap(services.ErrPersistence, component, "stats", "scan", err)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "stats", "iterate", err)
	}
	return counts, nil
}

const selectRecording = `
	SELECT id, source_path, title, status, duration_seconds, sample_rate,
		recorded_at, audio_stats_json, error_message, last_window_index,
		created_at, updated_at
	FROM recordings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var (
		rec             Recording
		status          string
		sourcePath      sql.NullString
		title           sql.NullString
		recordedAt      sql.NullString
		audioStats      sql.NullString
		errorMessage    sql.NullString
		lastWindowIndex sql.NullInt64
		createdAt       string
		updatedAt       string
	)

	err := row.Scan(
		&rec.ID, &sourcePath, &title, &status, &rec.DurationSeconds, &rec.SampleRate,
		&recordedAt, &audioStats, &errorMessage, &lastWindowIndex,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SourcePath = sourcePath.String
	rec.Title = title.String
	rec.AudioStatsJSON = audioStats.String
	rec.ErrorMessage = errorMessage.String

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for recording %s", status, rec.ID)
	}
	rec.Status = parsed

	if recordedAt.Valid && recordedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, recordedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		rec.RecordedAt = &ts
	}
	if lastWindowIndex.Valid {
		idx := int(lastWindowIndex.Int64)
		rec.LastWindowIndex = &idx
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
