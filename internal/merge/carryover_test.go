package merge_test

import (
	"strings"
	"testing"

	"scribe/internal/merge"
)

func TestNextHintPrefersMergedText(t *testing.T) {
	hint := merge.NextHint("merged tail", "raw tail", 300)
	if hint != "merged tail" {
		t.Fatalf("hint = %q", hint)
	}
}

func TestNextHintFallsBackToRawText(t *testing.T) {
	hint := merge.NextHint("", "raw tail", 300)
	if hint != "raw tail" {
		t.Fatalf("hint = %q", hint)
	}
}

func TestNextHintEmptyWhenWindowWasSilent(t *testing.T) {
	if hint := merge.NextHint("", "", 300); hint != "" {
		t.Fatalf("hint = %q, want empty", hint)
	}
}

func TestNextHintBounded(t *testing.T) {
	long := strings.Repeat("word ", 200)
	hint := merge.NextHint(long, "", 300)
	if got := len([]rune(hint)); got > 300 {
		t.Fatalf("hint length = %d, want <= 300", got)
	}
	if !strings.HasSuffix(strings.TrimSpace(long), hint) {
		t.Fatalf("hint should be a suffix of the source text")
	}
}
