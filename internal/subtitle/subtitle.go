// Package subtitle defines the subtitle sequence model shared by the
// transcription pipeline and the caption-file formatters.
package subtitle

import (
	"sort"
	"strings"
)

// Subtitle is a single timed caption cue. Start and End are seconds from the
// beginning of the media; End is never before Start. Index is 1-based and
// contiguous within a finished sequence.
type Subtitle struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the cue length in seconds.
func (s Subtitle) Duration() float64 {
	return s.End - s.Start
}

// Empty reports whether the cue carries no visible text.
func (s Subtitle) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// SortByStart orders the sequence by non-decreasing start time. Cues with
// equal starts keep their relative order.
func SortByStart(subs []Subtitle) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Start < subs[j].Start
	})
}

// Reindex renumbers the sequence 1..n in place and returns it.
func Reindex(subs []Subtitle) []Subtitle {
	for i := range subs {
		subs[i].Index = i + 1
	}
	return subs
}

// Shift returns a copy of the sequence with every start and end offset by
// delta seconds. Indices are left untouched; callers renumber after stitching.
func Shift(subs []Subtitle, delta float64) []Subtitle {
	out := make([]Subtitle, len(subs))
	for i, sub := range subs {
		sub.Start += delta
		sub.End += delta
		out[i] = sub
	}
	return out
}

// Ordered reports whether the sequence is sorted by non-decreasing start time.
func Ordered(subs []Subtitle) bool {
	for i := 1; i < len(subs); i++ {
		if subs[i].Start < subs[i-1].Start {
			return false
		}
	}
	return true
}

// TotalChars returns the combined text length, used for translation batching.
func TotalChars(subs []Subtitle) int {
	total := 0
	for _, sub := range subs {
		total += len(sub.Text)
	}
	return total
}
