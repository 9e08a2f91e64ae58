package merge

import "scribe/internal/textutil"

// NextHint derives the context hint for the upcoming window from the
// previous window's output. The merged (overlap-trimmed) text is preferred
// because it is the text adjacent to the next window's start; when a window
// contributed nothing to the merge (all silence, or fully inside the trimmed
// overlap) the raw full text is the fallback. Returns "" when the window
// produced no text at all; callers keep their previous hint in that case.
// The hint is advisory decoding context only and is never spliced into the
// transcript.
func NextHint(mergedText, rawText string, maxChars int) string {
	if hint := textutil.Tail(mergedText, maxChars); hint != "" {
		return hint
	}
	return textutil.Tail(rawText, maxChars)
}
