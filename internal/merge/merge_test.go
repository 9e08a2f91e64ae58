package merge_test

import (
	"errors"
	"math"
	"testing"

	"scribe/internal/merge"
	"scribe/internal/segment"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

func windowsFor(t *testing.T, duration, window, overlap float64) []segment.Window {
	t.Helper()
	windows, err := segment.Plan(duration, window, overlap)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return windows
}

func result(index int, lang string, segs ...transcribe.Segment) transcribe.WindowResult {
	return transcribe.WindowResult{
		WindowIndex: index,
		Result:      transcribe.Result{Segments: segs, Language: lang},
	}
}

func TestReconcileTrimsOverlapSegments(t *testing.T) {
	// Two 5-minute windows over 9.5 minutes, 30s overlap: window 1 starts
	// at 270s and re-sees window 0's last 30 seconds.
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}

	results := []transcribe.WindowResult{
		result(0, "en",
			transcribe.Segment{Start: 0, End: 4, Text: "opening words"},
			transcribe.Segment{Start: 280, End: 295, Text: "tail inside overlap"},
		),
		result(1, "en",
			transcribe.Segment{Start: 10, End: 20, Text: "duplicate of tail"},
			transcribe.Segment{Start: 31, End: 45, Text: "fresh content"},
		),
	}

	transcript, err := merge.Reconcile(windows, results, 30)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(transcript.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(transcript.Segments), transcript.Segments)
	}
	for _, seg := range transcript.Segments {
		if seg.Text == "duplicate of tail" {
			t.Fatalf("overlap segment should have been dropped: %+v", seg)
		}
	}

	// Kept window-1 segment gets a global timestamp.
	last := transcript.Segments[2]
	if last.Text != "fresh content" {
		t.Fatalf("unexpected final segment: %+v", last)
	}
	wantStart := windows[1].Start + 31
	if math.Abs(last.Start-wantStart) > 1e-9 {
		t.Fatalf("global start = %g, want %g", last.Start, wantStart)
	}
	if last.WindowIndex != 1 {
		t.Fatalf("window index = %d", last.WindowIndex)
	}

	if transcript.FullText != "opening words tail inside overlap fresh content" {
		t.Fatalf("full text = %q", transcript.FullText)
	}
}

func TestReconcileSingleWindowKeepsEverything(t *testing.T) {
	windows := windowsFor(t, 4*60, 5*60, 30)
	results := []transcribe.WindowResult{
		result(0, "en",
			transcribe.Segment{Start: 5, End: 9, Text: "only window"},
			transcribe.Segment{Start: 12, End: 20, Text: "keeps early segments too"},
		),
	}

	transcript, err := merge.Reconcile(windows, results, 30)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected both segments kept, got %+v", transcript.Segments)
	}
}

func TestReconcileCollapsesLanguages(t *testing.T) {
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	results := []transcribe.WindowResult{
		result(0, "en", transcribe.Segment{Start: 0, End: 2, Text: "a"}),
		result(1, "eng", transcribe.Segment{Start: 35, End: 40, Text: "b"}),
	}

	transcript, err := merge.Reconcile(windows, results, 30)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(transcript.Languages) != 1 || transcript.Languages[0] != "en" {
		t.Fatalf("languages = %v, want [en]", transcript.Languages)
	}
}

func TestBuilderReturnsMergedTextPerWindow(t *testing.T) {
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	builder := merge.NewBuilder(30)

	mergedFirst, err := builder.Add(windows[0], result(0, "en",
		transcribe.Segment{Start: 0, End: 4, Text: "hello"},
	))
	if err != nil {
		t.Fatalf("Add window 0: %v", err)
	}
	if mergedFirst != "hello" {
		t.Fatalf("merged text for window 0 = %q", mergedFirst)
	}

	// Window 1's only segment falls inside the overlap, so its merged text
	// is empty even though the raw result has text.
	mergedSecond, err := builder.Add(windows[1], result(1, "en",
		transcribe.Segment{Start: 3, End: 8, Text: "overlap echo"},
	))
	if err != nil {
		t.Fatalf("Add window 1: %v", err)
	}
	if mergedSecond != "" {
		t.Fatalf("merged text for window 1 = %q, want empty", mergedSecond)
	}
}

func TestBuilderRejectsOutOfOrderWindows(t *testing.T) {
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	builder := merge.NewBuilder(30)

	if _, err := builder.Add(windows[1], result(1, "en")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuilderRejectsMismatchedResult(t *testing.T) {
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	builder := merge.NewBuilder(30)

	if _, err := builder.Add(windows[0], result(1, "en")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReconcileLengthMismatch(t *testing.T) {
	windows := windowsFor(t, 9.5*60, 5*60, 30)
	_, err := merge.Reconcile(windows, nil, 30)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
