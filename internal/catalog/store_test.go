package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/catalog"
	"scribe/internal/merge"
	"scribe/internal/services"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenPath(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRecording(t *testing.T, store *catalog.Store) *catalog.Recording {
	t.Helper()
	rec, err := store.NewRecording(context.Background(), catalog.NewRecordingParams{
		SourcePath:      "/audio/recording_2024-11-26_14-00-00.wav",
		Title:           "recording_2024-11-26_14-00-00",
		DurationSeconds: 720,
		SampleRate:      16000,
	})
	if err != nil {
		t.Fatalf("NewRecording: %v", err)
	}
	return rec
}

func chunkRecording(t *testing.T, store *catalog.Store, id string) {
	t.Helper()
	windows := []catalog.Window{
		{RecordingID: id, Index: 0, StartSeconds: 0, DurationSeconds: 300, BlobKey: id + "/window_000.wav"},
		{RecordingID: id, Index: 1, StartSeconds: 270, DurationSeconds: 300, BlobKey: id + "/window_001.wav"},
		{RecordingID: id, Index: 2, StartSeconds: 540, DurationSeconds: 180, BlobKey: id + "/window_002.wav"},
	}
	if err := store.ReplaceWindows(context.Background(), id, windows); err != nil {
		t.Fatalf("ReplaceWindows: %v", err)
	}
}

func sampleTranscript() merge.Transcript {
	return merge.Transcript{
		FullText: "hello world again",
		Segments: []merge.Segment{
			{WindowIndex: 0, Start: 0, End: 2.5, Text: "hello world"},
			{WindowIndex: 1, Start: 301, End: 303, Text: "again"},
		},
		Languages: []string{"en"},
	}
}

func TestNewRecordingStartsPending(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)

	if rec.Status != catalog.StatusPending {
		t.Fatalf("status = %s, want pending", rec.Status)
	}

	loaded, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Title != rec.Title || loaded.DurationSeconds != 720 || loaded.SampleRate != 16000 {
		t.Fatalf("loaded recording mismatch: %+v", loaded)
	}
	if loaded.LastWindowIndex != nil {
		t.Fatalf("LastWindowIndex = %v, want nil", *loaded.LastWindowIndex)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceWindowsMovesToChunked(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)

	loaded, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != catalog.StatusChunked {
		t.Fatalf("status = %s, want chunked", loaded.Status)
	}

	windows, err := store.WindowsByRecording(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("WindowsByRecording: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	for i, win := range windows {
		if win.Index != i {
			t.Fatalf("window %d has index %d", i, win.Index)
		}
	}
}

func TestReplaceWindowsRejectsEmptyPlan(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	err := store.ReplaceWindows(context.Background(), rec.ID, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestReplaceWindowsReplacesOldPlan(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)

	replacement := []catalog.Window{
		{RecordingID: rec.ID, Index: 0, StartSeconds: 0, DurationSeconds: 720, BlobKey: rec.ID + "/window_000.wav"},
	}
	if err := store.ReplaceWindows(context.Background(), rec.ID, replacement); err != nil {
		t.Fatalf("ReplaceWindows: %v", err)
	}

	windows, err := store.WindowsByRecording(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("WindowsByRecording: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("len(windows) = %d, want 1", len(windows))
	}
}

func TestMarkProcessingClaimsOnce(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)

	if err := store.MarkProcessing(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	err := store.MarkProcessing(context.Background(), rec.ID)
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("second claim err = %v, want ErrBusy", err)
	}
}

func TestMarkProcessingRejectsPending(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)

	err := store.MarkProcessing(context.Background(), rec.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSaveTranscriptCompletesAtomically(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)
	if err := store.MarkProcessing(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	if err := store.SaveTranscript(context.Background(), rec.ID, sampleTranscript()); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	loaded, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != catalog.StatusCompleted {
		t.Fatalf("status = %s, want completed", loaded.Status)
	}

	transcript, err := store.GetTranscript(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if transcript.FullText != "hello world again" {
		t.Fatalf("FullText = %q", transcript.FullText)
	}
	if len(transcript.Segments) != 2 || transcript.Segments[1].Start != 301 {
		t.Fatalf("segments = %+v", transcript.Segments)
	}
	if len(transcript.Languages) != 1 || transcript.Languages[0] != "en" {
		t.Fatalf("languages = %v", transcript.Languages)
	}
}

func TestSaveTranscriptRequiresProcessing(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)

	err := store.SaveTranscript(context.Background(), rec.ID, sampleTranscript())
	if err == nil {
		t.Fatal("expected error saving transcript outside processing")
	}

	// The status transition failed, so the transcript must not be served.
	_, err = store.GetTranscript(context.Background(), rec.ID)
	if !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("GetTranscript err = %v, want ErrNotReady", err)
	}
}

func TestGetTranscriptNotReadyWhileProcessing(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)
	if err := store.MarkProcessing(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	_, err := store.GetTranscript(context.Background(), rec.ID)
	if !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestMarkFailedKeepsWindowIndex(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)
	if err := store.MarkProcessing(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.SetWindowProgress(context.Background(), rec.ID, 0); err != nil {
		t.Fatalf("SetWindowProgress: %v", err)
	}

	if err := store.MarkFailed(context.Background(), rec.ID, "window 1: engine exited 1"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	loaded, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != catalog.StatusFailed {
		t.Fatalf("status = %s, want failed", loaded.Status)
	}
	if loaded.ErrorMessage != "window 1: engine exited 1" {
		t.Fatalf("ErrorMessage = %q", loaded.ErrorMessage)
	}
	// Progress from before the failure is preserved for diagnosis.
	if loaded.LastWindowIndex == nil || *loaded.LastWindowIndex != 0 {
		t.Fatalf("LastWindowIndex = %v, want 0", loaded.LastWindowIndex)
	}
}

func TestReprocessAfterFailureAndCompletion(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)
	ctx := context.Background()

	if err := store.MarkProcessing(ctx, rec.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := store.MarkFailed(ctx, rec.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	// failed -> processing
	if err := store.MarkProcessing(ctx, rec.ID); err != nil {
		t.Fatalf("claim after failure: %v", err)
	}
	loaded, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.ErrorMessage != "" || loaded.LastWindowIndex != nil {
		t.Fatalf("claim should clear failure fields: %+v", loaded)
	}
	if err := store.SaveTranscript(ctx, rec.ID, sampleTranscript()); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	// completed -> processing (reprocess)
	if err := store.MarkProcessing(ctx, rec.ID); err != nil {
		t.Fatalf("claim after completion: %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	pending := newRecording(t, store)
	chunked := newRecording(t, store)
	chunkRecording(t, store, chunked.ID)

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	onlyPending, err := store.List(ctx, catalog.StatusPending)
	if err != nil {
		t.Fatalf("List(pending): %v", err)
	}
	if len(onlyPending) != 1 || onlyPending[0].ID != pending.ID {
		t.Fatalf("pending list = %+v", onlyPending)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := openStore(t)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)
	ctx := context.Background()

	if err := store.MarkProcessing(ctx, rec.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	ids, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if len(ids) != 1 || ids[0] != rec.ID {
		t.Fatalf("ids = %v", ids)
	}

	loaded, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != catalog.StatusChunked {
		t.Fatalf("status = %s, want chunked", loaded.Status)
	}
}

func TestStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	newRecording(t, store)
	rec := newRecording(t, store)
	chunkRecording(t, store, rec.ID)

	counts, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if counts[catalog.StatusPending] != 1 || counts[catalog.StatusChunked] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  catalog.Status
		ok    bool
	}{
		{"pending", catalog.StatusPending, true},
		{" Completed ", catalog.StatusCompleted, true},
		{"FAILED", catalog.StatusFailed, true},
		{"bogus", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := catalog.ParseStatus(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusStartable(t *testing.T) {
	// The claim in MarkProcessing is driven by this predicate: pending has
	// no windows yet, processing is already claimed.
	want := map[catalog.Status]bool{
		catalog.StatusPending:    false,
		catalog.StatusChunked:    true,
		catalog.StatusProcessing: false,
		catalog.StatusCompleted:  true,
		catalog.StatusFailed:     true,
	}
	for _, status := range catalog.AllStatuses() {
		if got := status.Startable(); got != want[status] {
			t.Errorf("%s.Startable() = %v, want %v", status, got, want[status])
		}
	}
}

func TestRecordedAtRoundTrip(t *testing.T) {
	store := openStore(t)
	recordedAt := time.Date(2024, 11, 26, 14, 0, 0, 0, time.UTC)
	rec, err := store.NewRecording(context.Background(), catalog.NewRecordingParams{
		Title:      "with-timestamp",
		RecordedAt: &recordedAt,
	})
	if err != nil {
		t.Fatalf("NewRecording: %v", err)
	}

	loaded, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.RecordedAt == nil || !loaded.RecordedAt.Equal(recordedAt) {
		t.Fatalf("RecordedAt = %v, want %v", loaded.RecordedAt, recordedAt)
	}
}
