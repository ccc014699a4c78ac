// Package filter cleans raw transcripts with a pipeline of heuristics:
// empty cues, prompt echoes, degenerate repetition, known hallucination
// patterns, and implausibly long cues are dropped, adjacent duplicates are
// merged, and the result is renumbered. Filtering never empties a non-empty
// transcript; if every cue would be removed the input is returned untouched.
package filter

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"captiond/internal/config"
	"captiond/internal/logging"
	"captiond/internal/subtitle"
)

// promptArtifacts are phrases speech models emit when they echo their prompt
// or hallucinate channel boilerplate over silence.
var promptArtifacts = []string{
	"please transcribe",
	"transcribe the following",
	"subtitles by the amara.org community",
	"thank you for watching",
	"thanks for watching",
	"please subscribe",
	"like and subscribe",
	"www.mooji.org",
	"请不吝点赞",
	"订阅我的频道",
	"感谢观看",
	"请转录",
	"字幕由",
}

// bracketedNoise covers bracket-only cues that describe sound instead of
// speech. Matching is done on the inner text.
var bracketedNoise = []string{
	"music", "applause", "laughter", "silence", "noise",
	"音乐", "掌声", "笑声", "沉默", "噪音", "♪",
}

// Stats summarizes what a filter pass removed.
type Stats struct {
	Total             int
	RemovedEmpty      int
	RemovedArtifacts  int
	RemovedRepetition int
	RemovedBracketed  int
	RemovedDuration   int
	Merged            int
}

// Removed is the total number of cues dropped, excluding merges.
func (s Stats) Removed() int {
	return s.RemovedEmpty + s.RemovedArtifacts + s.RemovedRepetition + s.RemovedBracketed + s.RemovedDuration
}

// RejectRatio is the fraction of input cues that were dropped.
func (s Stats) RejectRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Removed()) / float64(s.Total)
}

// Filter runs the cleanup heuristics with configured thresholds.
type Filter struct {
	cfg    config.Filter
	logger *slog.Logger
}

// New returns a Filter using the given thresholds.
func New(cfg config.Filter, logger *slog.Logger) *Filter {
	return &Filter{cfg: cfg, logger: logging.WithComponent(logger, "filter")}
}

// Run cleans the transcript and returns the surviving cues renumbered from 1,
// together with removal statistics and the content classification used for
// the duration cutoff.
func (f *Filter) Run(subs []subtitle.Subtitle) ([]subtitle.Subtitle, Stats, Analysis) {
	stats := Stats{Total: len(subs)}
	if len(subs) == 0 {
		return nil, stats, Analysis{Type: ContentGeneral, Confidence: 0.5}
	}

	texts := make([]string, 0, len(subs))
	for _, sub := range subs {
		texts = append(texts, sub.Text)
	}
	analysis := Classify(texts, f.cfg.AdultRatio, f.cfg.ConversationRatio)

	maxCue := f.cfg.MaxCueSeconds
	if analysis.Type == ContentAdult && f.cfg.AdultMaxCueSeconds > 0 {
		maxCue = f.cfg.AdultMaxCueSeconds
	}

	kept := make([]subtitle.Subtitle, 0, len(subs))
	for _, sub := range subs {
		text := strings.TrimSpace(sub.Text)
		switch {
		case text == "":
			stats.RemovedEmpty++
		case isPromptArtifact(text):
			stats.RemovedArtifacts++
		case isExtremeRepetition(text, f.cfg.RepetitionCount):
			stats.RemovedRepetition++
		case isBracketedNoise(text):
			stats.RemovedBracketed++
		case maxCue > 0 && sub.Duration() > maxCue:
			stats.RemovedDuration++
		default:
			sub.Text = text
			kept = append(kept, sub)
		}
	}

	// A transcript must never be filtered into nothing; rather ship the raw
	// cues than an empty file.
	if len(kept) == 0 {
		f.logger.Warn("all cues rejected, keeping raw transcript",
			logging.Int("total", stats.Total))
		kept = make([]subtitle.Subtitle, 0, len(subs))
		for _, sub := range subs {
			if strings.TrimSpace(sub.Text) != "" {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			kept = append(kept, subs...)
		}
		stats = Stats{Total: stats.Total}
	}

	merged := f.mergeDuplicates(kept, maxCue, &stats)
	subtitle.Reindex(merged)
	return merged, stats, analysis
}

// mergeDuplicates collapses adjacent cues whose text matches ignoring case
// and whose gap is under the configured threshold. The merged cue keeps the
// longer text variant and never grows past maxCue, so filtering an already
// filtered transcript leaves it unchanged.
func (f *Filter) mergeDuplicates(subs []subtitle.Subtitle, maxCue float64, stats *Stats) []subtitle.Subtitle {
	if len(subs) < 2 {
		return subs
	}
	out := make([]subtitle.Subtitle, 0, len(subs))
	out = append(out, subs[0])
	for _, sub := range subs[1:] {
		last := &out[len(out)-1]
		gap := sub.Start - last.End
		end := last.End
		if sub.End > end {
			end = sub.End
		}
		withinCap := maxCue <= 0 || end-last.Start <= maxCue
		if strings.EqualFold(sub.Text, last.Text) && gap >= 0 && gap < f.cfg.MergeGapSeconds && withinCap {
			last.End = end
			if len(sub.Text) > len(last.Text) {
				last.Text = sub.Text
			}
			stats.Merged++
			continue
		}
		out = append(out, sub)
	}
	return out
}

func isPromptArtifact(text string) bool {
	lowered := strings.ToLower(text)
	for _, artifact := range promptArtifacts {
		if strings.Contains(lowered, artifact) {
			return true
		}
	}
	return false
}

// isExtremeRepetition detects degenerate output: a short pattern repeated
// enough times to fill the whole cue, or a single token repeated over and
// over.
func isExtremeRepetition(text string, minRepeats int) bool {
	if minRepeats < 2 {
		return false
	}

	runes := []rune(text)
	for patternLen := 1; patternLen <= 5; patternLen++ {
		if len(runes)%patternLen != 0 {
			continue
		}
		repeats := len(runes) / patternLen
		if repeats < minRepeats {
			continue
		}
		if runesRepeat(runes, patternLen) {
			return true
		}
	}

	fields := strings.Fields(text)
	if len(fields) >= minRepeats {
		allSame := true
		for _, field := range fields[1:] {
			if field != fields[0] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

func runesRepeat(runes []rune, patternLen int) bool {
	for i := patternLen; i < len(runes); i++ {
		if runes[i] != runes[i%patternLen] {
			return false
		}
	}
	return true
}

func isBracketedNoise(text string) bool {
	inner, ok := stripBrackets(text)
	if !ok {
		return false
	}
	inner = strings.ToLower(strings.TrimSpace(inner))
	for _, noise := range bracketedNoise {
		if strings.Contains(inner, noise) {
			return true
		}
	}
	return false
}

var bracketPairs = map[rune]rune{
	'[': ']',
	'(': ')',
	'（': '）',
	'【': '】',
}

func stripBrackets(text string) (string, bool) {
	first, _ := utf8.DecodeRuneInString(text)
	closing, ok := bracketPairs[first]
	if !ok {
		return "", false
	}
	last, lastSize := utf8.DecodeLastRuneInString(text)
	if last != closing {
		return "", false
	}
	_, firstSize := utf8.DecodeRuneInString(text)
	return text[firstSize : len(text)-lastSize], true
}
