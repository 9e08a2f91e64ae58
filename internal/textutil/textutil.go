package textutil

import (
	"strings"
	"unicode/utf8"
)

// Tail returns the last maxChars characters of s, counted in runes so a
// multi-byte character is never split. Leading/trailing whitespace of the
// result is trimmed.
func Tail(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if maxChars <= 0 || s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[len(runes)-maxChars:]))
}

// CollapseWhitespace folds runs of whitespace (including newlines) into
// single spaces and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinNonEmpty joins the trimmed, non-empty elements of parts with sep.
func JoinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, sep)
}
