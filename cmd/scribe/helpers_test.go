package main

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{-3, "-"},
		{90, "1m30s"},
		{720, "12m0s"},
		{3661, "1h1m1s"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.seconds); got != tc.want {
			t.Errorf("formatSeconds(%g) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a-very-long-title", 10); got != "a-very-..." {
		t.Errorf("truncate long = %q", got)
	}
}

func TestFormatLanguages(t *testing.T) {
	if got := formatLanguages(nil); got != "-" {
		t.Errorf("empty = %q", got)
	}
	if got := formatLanguages([]string{"en", "de"}); got != "English, German" {
		t.Errorf("languages = %q", got)
	}
}

func TestFormatWindowIndex(t *testing.T) {
	if got := formatWindowIndex(nil); got != "-" {
		t.Errorf("nil index = %q", got)
	}
	idx := 4
	if got := formatWindowIndex(&idx); got != "4" {
		t.Errorf("index = %q", got)
	}
}
