package subtitle

import (
	"math"
	"strings"
	"testing"
)

func TestRenderSRT(t *testing.T) {
	subs := []Subtitle{
		{Index: 1, Start: 0, End: 2.5, Text: "Hello there."},
		{Index: 2, Start: 3661.042, End: 3663.999, Text: "Second line."},
	}

	got := RenderSRT(subs)
	want := "1\n00:00:00,000 --> 00:00:02,500\nHello there.\n" +
		"\n2\n01:01:01,042 --> 01:01:03,999\nSecond line.\n"
	if got != want {
		t.Fatalf("unexpected SRT output:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderVTT(t *testing.T) {
	subs := []Subtitle{
		{Index: 1, Start: 1.25, End: 3.5, Text: "Cue one"},
	}

	got := RenderVTT(subs)
	if !strings.HasPrefix(got, "WEBVTT\n\n") {
		t.Fatalf("expected WEBVTT header, got %q", got)
	}
	if !strings.Contains(got, "00:00:01.250 --> 00:00:03.500\nCue one\n") {
		t.Fatalf("unexpected VTT cue block: %q", got)
	}
	if strings.Contains(got, ",") {
		t.Errorf("VTT output must not contain comma separators: %q", got)
	}
}

func TestFormatTimestampTruncatesMillis(t *testing.T) {
	// 1.9996s floors to 999ms, never rounds to 2.000.
	if got := FormatTimestamp(1.9996, ','); got != "00:00:01,999" {
		t.Fatalf("expected floor to 999ms, got %q", got)
	}
	if got := FormatTimestamp(0, ','); got != "00:00:00,000" {
		t.Fatalf("expected zero-padded timestamp, got %q", got)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	values := []float64{0, 0.001, 1.5, 59.999, 61.042, 3599.5, 3600, 7261.128}
	for _, value := range values {
		formatted := FormatTimestamp(value, ',')
		parsed, err := ParseTimestamp(formatted)
		if err != nil {
			t.Fatalf("parse %q: %v", formatted, err)
		}
		if math.Abs(parsed-value) > 0.001 {
			t.Errorf("round trip %v -> %q -> %v drifted more than 1ms", value, formatted, parsed)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "12:00", "aa:bb:cc,ddd", "00:00:00"} {
		if _, err := ParseTimestamp(value); err == nil {
			t.Errorf("expected error for %q", value)
		}
	}
}
