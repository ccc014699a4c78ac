package whisper

import (
	"testing"

	"captiond/internal/subtitle"
)

func TestSynthesizeCoversDuration(t *testing.T) {
	subs := Synthesize("/tmp/audio.wav", "en", 60)
	if len(subs) == 0 {
		t.Fatal("expected cues")
	}
	if !subtitle.Ordered(subs) {
		t.Fatal("cues must be ordered")
	}
	for i, sub := range subs {
		if sub.Index != i+1 {
			t.Errorf("cue %d has index %d", i, sub.Index)
		}
		duration := sub.Duration()
		if duration < 0.5 || duration > 5 {
			t.Errorf("cue duration %v outside window", duration)
		}
		if sub.End > 60 {
			t.Errorf("cue extends past audio end: %+v", sub)
		}
		if sub.Text == "" {
			t.Errorf("cue %d has empty text", i)
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	first := Synthesize("/tmp/audio.wav", "en", 120)
	second := Synthesize("/tmp/audio.wav", "en", 120)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cue %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSynthesizeCapsSegments(t *testing.T) {
	subs := Synthesize("/tmp/audio.wav", "en", 10_000)
	if len(subs) > maxSyntheticSegments {
		t.Fatalf("segment cap exceeded: %d", len(subs))
	}
}

func TestSynthesizeUsesLanguagePhrases(t *testing.T) {
	subs := Synthesize("/tmp/audio.wav", "zh", 30)
	if len(subs) == 0 {
		t.Fatal("expected cues")
	}
	if subs[0].Text != "[音乐播放中]" {
		t.Errorf("expected Chinese phrase, got %q", subs[0].Text)
	}
}
