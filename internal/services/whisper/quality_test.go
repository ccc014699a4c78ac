package whisper

import (
	"fmt"
	"testing"

	"captiond/internal/subtitle"
)

func makeCues(texts []string) []subtitle.Subtitle {
	subs := make([]subtitle.Subtitle, len(texts))
	for i, text := range texts {
		subs[i] = subtitle.Subtitle{Index: i + 1, Start: float64(i), End: float64(i) + 1, Text: text}
	}
	return subs
}

func TestSuspiciousDetectsDominantDuplicate(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "Thanks."
	}
	texts[9] = "different"
	if !Suspicious(makeCues(texts), 0.8) {
		t.Fatal("90% duplication should be suspicious")
	}
}

func TestSuspiciousAcceptsVariedTranscript(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("line %d", i)
	}
	if Suspicious(makeCues(texts), 0.8) {
		t.Fatal("varied transcript flagged")
	}
}

func TestSuspiciousIgnoresTinyTranscripts(t *testing.T) {
	if Suspicious(makeCues([]string{"a", "a", "a"}), 0.8) {
		t.Fatal("transcripts below the minimum size should pass")
	}
}
