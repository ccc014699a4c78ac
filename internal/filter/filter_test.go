package filter

import (
	"math"
	"strings"
	"testing"

	"captiond/internal/config"
	"captiond/internal/subtitle"
)

func defaultFilter() *Filter {
	return New(config.Default().Filter, nil)
}

func cue(index int, start, end float64, text string) subtitle.Subtitle {
	return subtitle.Subtitle{Index: index, Start: start, End: end, Text: text}
}

func TestRemovesEmptyCues(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "hello there"),
		cue(2, 2, 4, "   "),
		cue(3, 4, 6, "general kenobi"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(out))
	}
	if stats.RemovedEmpty != 1 {
		t.Fatalf("expected 1 empty removal, got %d", stats.RemovedEmpty)
	}
}

func TestRemovesPromptArtifacts(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "actual dialogue"),
		cue(2, 2, 4, "Thank you for watching!"),
		cue(3, 4, 6, "请不吝点赞 订阅"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if len(out) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(out))
	}
	if stats.RemovedArtifacts != 2 {
		t.Fatalf("expected 2 artifact removals, got %d", stats.RemovedArtifacts)
	}
}

func TestRemovesExtremeRepetition(t *testing.T) {
	repeatedWord := strings.TrimSpace(strings.Repeat("no ", 10))
	repeatedPattern := strings.Repeat("ab", 12)
	fewRepeats := strings.TrimSpace(strings.Repeat("no ", 3))

	subs := []subtitle.Subtitle{
		cue(1, 0, 2, repeatedWord),
		cue(2, 2, 4, repeatedPattern),
		cue(3, 4, 6, fewRepeats),
		cue(4, 6, 8, "normal sentence here"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(out), out)
	}
	if stats.RemovedRepetition != 2 {
		t.Fatalf("expected 2 repetition removals, got %d", stats.RemovedRepetition)
	}
	if out[0].Text != fewRepeats {
		t.Fatalf("short repetition should survive, got %q", out[0].Text)
	}
}

func TestRemovesBracketedNoise(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "[Music]"),
		cue(2, 2, 4, "(applause)"),
		cue(3, 4, 6, "【音乐】"),
		cue(4, 6, 8, "[door slams] and then he left"),
		cue(5, 8, 10, "real line"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if stats.RemovedBracketed != 3 {
		t.Fatalf("expected 3 bracketed removals, got %d", stats.RemovedBracketed)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(out))
	}
}

func TestRemovesOverlongCues(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 70, "this cue spans over a minute"),
		cue(2, 70, 75, "fine"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if stats.RemovedDuration != 1 {
		t.Fatalf("expected 1 duration removal, got %d", stats.RemovedDuration)
	}
	if len(out) != 1 || out[0].Text != "fine" {
		t.Fatalf("unexpected survivors %+v", out)
	}
}

func TestAdultContentTightensDurationCutoff(t *testing.T) {
	subs := []subtitle.Subtitle{cue(1, 0, 50, "a fifty second cue")}
	// Pad with adult-keyword cues to cross the 5% ratio.
	for i := 0; i < 3; i++ {
		subs = append(subs, cue(i+2, float64(50+i*2), float64(52+i*2), "soft moaning sounds"))
	}
	out, stats, analysis := defaultFilter().Run(subs)
	if analysis.Type != ContentAdult {
		t.Fatalf("expected adult classification, got %s", analysis.Type)
	}
	if stats.RemovedDuration != 1 {
		t.Fatalf("expected the 50s cue removed under 45s cutoff, got %d removals", stats.RemovedDuration)
	}
	for _, sub := range out {
		if sub.Duration() > 45 {
			t.Fatalf("cue over adult cutoff survived: %+v", sub)
		}
	}
}

func TestMergesAdjacentDuplicates(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "same line"),
		cue(2, 2.5, 4, "same line"),
		cue(3, 10, 12, "same line"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if stats.Merged != 1 {
		t.Fatalf("expected 1 merge, got %d", stats.Merged)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(out))
	}
	if out[0].Start != 0 || out[0].End != 4 {
		t.Fatalf("merged cue should span 0-4, got %v-%v", out[0].Start, out[0].End)
	}
}

func TestMergesCaseInsensitively(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 1, "No"),
		cue(2, 1.2, 2, "no"),
		cue(3, 2.4, 3, "NO WAY"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if stats.Merged != 1 {
		t.Fatalf("expected 1 merge, got %d", stats.Merged)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(out), out)
	}
	if out[0].Start != 0 || out[0].End != 2 {
		t.Fatalf("merged cue should span 0-2, got %v-%v", out[0].Start, out[0].End)
	}
	if out[0].Text != "No" {
		t.Fatalf("equal-length variants keep the first text, got %q", out[0].Text)
	}
}

func TestMergeNeverExceedsDurationCutoff(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 59, "hello there"),
		cue(2, 59.5, 118.5, "hello there"),
		cue(3, 120, 125, "something else"),
	}
	out, stats, _ := defaultFilter().Run(subs)
	if stats.Merged != 0 {
		t.Fatalf("merge across the 60s cutoff must be skipped, got %d merges", stats.Merged)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 cues, got %d: %+v", len(out), out)
	}

	again, stats, _ := defaultFilter().Run(out)
	if len(again) != len(out) {
		t.Fatalf("second pass changed cue count: %d vs %d", len(out), len(again))
	}
	if stats.Removed() != 0 || stats.Merged != 0 {
		t.Fatalf("second pass should be a no-op, stats %+v", stats)
	}
}

func TestNeverReturnsEmpty(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "Thank you for watching"),
		cue(2, 2, 4, "[Music]"),
	}
	out, _, _ := defaultFilter().Run(subs)
	if len(out) == 0 {
		t.Fatal("filter must not empty a non-empty transcript")
	}
}

func TestReindexesOutput(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(7, 0, 2, "one"),
		cue(9, 2, 4, ""),
		cue(11, 4, 6, "two"),
	}
	out, _, _ := defaultFilter().Run(subs)
	for i, sub := range out {
		if sub.Index != i+1 {
			t.Fatalf("cue %d has index %d", i, sub.Index)
		}
	}
}

func TestIdempotent(t *testing.T) {
	subs := []subtitle.Subtitle{
		cue(1, 0, 2, "hello"),
		cue(2, 2, 4, "[Music]"),
		cue(3, 4, 6, "world"),
		cue(4, 6.2, 8, "world"),
	}
	first, _, _ := defaultFilter().Run(subs)
	second, stats, _ := defaultFilter().Run(first)
	if len(first) != len(second) {
		t.Fatalf("second pass changed cue count: %d vs %d", len(first), len(second))
	}
	if stats.Removed() != 0 || stats.Merged != 0 {
		t.Fatalf("second pass should be a no-op, stats %+v", stats)
	}
}

func TestClassifyConversation(t *testing.T) {
	texts := []string{
		"yeah, okay", "you know what I mean", "plain narration",
		"more narration", "and some more", "hello there",
	}
	analysis := Classify(texts, 0.05, 0.10)
	if analysis.Type != ContentConversation {
		t.Fatalf("expected conversation, got %s", analysis.Type)
	}
}

func TestClassifyGeneralByDefault(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = "neutral descriptive narration line"
	}
	analysis := Classify(texts, 0.05, 0.10)
	if analysis.Type != ContentGeneral {
		t.Fatalf("expected general, got %s", analysis.Type)
	}
	if analysis.Confidence != 0.5 {
		t.Fatalf("general confidence should be 0.5, got %v", analysis.Confidence)
	}
}

func TestClassifyRatiosUseWordCount(t *testing.T) {
	// One keyword occurrence in a 15-word transcript is 6.7%, just over
	// the 5% adult bar regardless of how the words split into cues.
	texts := []string{
		"she whispered an intimate word as the rain",
		"kept falling on the quiet roof tonight",
	}
	analysis := Classify(texts, 0.05, 0.10)
	if analysis.Type != ContentAdult {
		t.Fatalf("expected adult, got %s (ratio %v)", analysis.Type, analysis.AdultRatio)
	}
	want := 1.0 / 15.0
	if math.Abs(analysis.AdultRatio-want) > 1e-9 {
		t.Fatalf("adult ratio %v, want %v", analysis.AdultRatio, want)
	}
	if math.Abs(analysis.Confidence-want*10) > 1e-9 {
		t.Fatalf("confidence %v, want %v", analysis.Confidence, want*10)
	}
}

func TestClassifyDilutedKeywordStaysGeneral(t *testing.T) {
	// A single keyword cue among many words stays under the 5% bar even
	// though half the cues contain a keyword.
	texts := []string{
		"intimate",
		"the long and winding narration continued for quite a while " +
			"describing fields and rivers and distant mountain ranges in detail",
	}
	analysis := Classify(texts, 0.05, 0.10)
	if analysis.Type != ContentGeneral {
		t.Fatalf("expected general, got %s (ratio %v)", analysis.Type, analysis.AdultRatio)
	}
}

func TestClassifyKeywordBoundaries(t *testing.T) {
	// "sextant" must not count as "sex", and "moaning" must not also
	// count as "moan".
	texts := []string{"the sextant readings drifted all afternoon"}
	if analysis := Classify(texts, 0.05, 0.10); analysis.AdultRatio != 0 {
		t.Fatalf("substring inside a larger word counted: %v", analysis.AdultRatio)
	}
	texts = []string{"moaning"}
	if analysis := Classify(texts, 0.05, 0.10); analysis.AdultRatio != 1 {
		t.Fatalf("expected exactly one hit per word, got ratio %v", analysis.AdultRatio)
	}
}

func TestClassifyConfidenceClamped(t *testing.T) {
	analysis := Classify([]string{"sex sex sex"}, 0.05, 0.10)
	if analysis.Type != ContentAdult {
		t.Fatalf("expected adult, got %s", analysis.Type)
	}
	if analysis.Confidence != 1 {
		t.Fatalf("confidence should clamp to 1, got %v", analysis.Confidence)
	}
}
