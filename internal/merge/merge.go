package merge

import (
	"fmt"
	"sort"

	langpkg "scribe/internal/language"
	"scribe/internal/segment"
	"scribe/internal/services"
	"scribe/internal/textutil"
	"scribe/internal/transcribe"
)

// Segment is a transcript span with global timestamps (seconds from the
// start of the recording).
type Segment struct {
	WindowIndex int     `json:"window_index"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
}

// Transcript is the final reconciled artifact for one recording.
type Transcript struct {
	FullText  string    `json:"full_text"`
	Segments  []Segment `json:"segments"`
	Languages []string  `json:"languages"`
}

// Builder folds per-window results into one transcript as the processing
// loop advances. Windows must be added in index order because the trim rule
// for window i assumes window i-1 already emitted the shared region.
type Builder struct {
	overlap   float64
	segments  []Segment
	languages map[string]struct{}
	next      int
}

// NewBuilder creates a builder for the given overlap length in seconds.
func NewBuilder(overlapSeconds float64) *Builder {
	return &Builder{
		overlap:   overlapSeconds,
		languages: make(map[string]struct{}),
	}
}

// Add merges one window's result and returns the text that survived the
// overlap trim for that window. The trimmed text, not the window's raw full
// text, is what sits adjacent to the next window's start, so it is the right
// source for the next context hint.
//
// Window 0 keeps every segment. For later windows, any segment starting
// inside the first overlapSeconds is dropped: the previous window already
// emitted that region. The cut is at segment granularity; a segment
// straddling the boundary is kept or dropped whole.
func (b *Builder) Add(win segment.Window, result transcribe.WindowResult) (string, error) {
	if win.Index != b.next {
		return "", services.Wrap(services.ErrValidation, "reconciler", "add",
			fmt.Sprintf("window %d out of order, expected %d", win.Index, b.next), nil)
	}
	if result.WindowIndex != win.Index {
		return "", services.Wrap(services.ErrValidation, "reconciler", "add",
			fmt.Sprintf("result for window %d paired with window %d", result.WindowIndex, win.Index), nil)
	}
	b.next++

	if lang := langpkg.Normalize(result.Language); lang != "" {
		b.languages[lang] = struct{}{}
	}

	kept := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		if win.Index > 0 && seg.Start < b.overlap {
			continue
		}
		b.segments = append(b.segments, Segment{
			WindowIndex: win.Index,
			Start:       win.Start + seg.Start,
			End:         win.Start + seg.End,
			Text:        seg.Text,
		})
		kept = append(kept, seg.Text)
	}
	return textutil.JoinNonEmpty(kept, " "), nil
}

// Windows returns how many windows have been folded in.
func (b *Builder) Windows() int {
	return b.next
}

// Transcript finalizes the merge. The full text is exactly the join of the
// kept segments' texts, in window-then-local order.
func (b *Builder) Transcript() Transcript {
	texts := make([]string, 0, len(b.segments))
	for _, seg := range b.segments {
		texts = append(texts, seg.Text)
	}

	languages := make([]string, 0, len(b.languages))
	for lang := range b.languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return Transcript{
		FullText:  textutil.JoinNonEmpty(texts, " "),
		Segments:  append([]Segment(nil), b.segments...),
		Languages: languages,
	}
}

// Reconcile merges a complete, ordered set of window results in one call.
// The windows and results must be index-aligned.
func Reconcile(windows []segment.Window, results []transcribe.WindowResult, overlapSeconds float64) (Transcript, error) {
	if len(windows) != len(results) {
		return Transcript{}, services.Wrap(services.ErrValidation, "reconciler", "reconcile",
			fmt.Sprintf("%d windows but %d results", len(windows), len(results)), nil)
	}
	builder := NewBuilder(overlapSeconds)
	for i := range windows {
		if _, err := builder.Add(windows[i], results[i]); err != nil {
			return Transcript{}, err
		}
	}
	return builder.Transcript(), nil
}
