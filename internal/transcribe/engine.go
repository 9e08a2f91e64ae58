package transcribe

import (
	"context"

	"scribe/internal/textutil"
)

// Segment is a timestamped span of transcribed text. Start and End are
// seconds relative to the window the audio was cut from.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is one window's transcription as returned by an engine.
type Result struct {
	Segments           []Segment
	Language           string
	LanguageConfidence float64
}

// FullText joins the segment texts in order.
func (r Result) FullText() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		parts = append(parts, seg.Text)
	}
	return textutil.JoinNonEmpty(parts, " ")
}

// Request describes one engine invocation. InitialPrompt is advisory
// context from the previous window; it biases decoding but is never spliced
// into the output.
type Request struct {
	AudioPath     string
	InitialPrompt string
}

// Engine is the capability boundary to the speech-to-text model. Decode
// policy (task, beam width, VAD filtering) is the implementation's fixed
// configuration, not part of the request.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// WindowResult pairs a window index with its transcription.
type WindowResult struct {
	WindowIndex int
	Result
}

func normalizeSegment(seg Segment, duration float64) (Segment, bool) {
	// Engine output may carry internal newlines; segment text is one line.
	seg.Text = textutil.CollapseWhitespace(seg.Text)
	if seg.Text == "" {
		return seg, false
	}
	if seg.Start < 0 {
		seg.Start = 0
	}
	if duration > 0 && seg.End > duration {
		seg.End = duration
	}
	if duration > 0 && seg.Start > duration {
		return seg, false
	}
	if seg.End < seg.Start {
		seg.End = seg.Start
	}
	return seg, true
}
