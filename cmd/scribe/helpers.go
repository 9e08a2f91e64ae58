package main

import (
	"fmt"
	"strings"
	"time"

	"scribe/internal/language"
)

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second))
	return d.Truncate(time.Second).String()
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatWindowIndex(idx *int) string {
	if idx == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *idx)
}

func formatLanguages(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, language.DisplayName(code))
	}
	return strings.Join(names, ", ")
}
