package whisper

import (
	"strings"

	"captiond/internal/subtitle"
)

// minCuesForQualityCheck avoids flagging tiny transcripts where a little
// duplication is normal.
const minCuesForQualityCheck = 4

// Suspicious reports whether a transcript looks like degenerate model
// output: the most common cue text accounts for more than threshold of all
// cues. Such responses are worth one more attempt before being accepted.
func Suspicious(subs []subtitle.Subtitle, threshold float64) bool {
	if threshold <= 0 || len(subs) < minCuesForQualityCheck {
		return false
	}
	counts := make(map[string]int, len(subs))
	top := 0
	for _, sub := range subs {
		key := strings.ToLower(strings.TrimSpace(sub.Text))
		if key == "" {
			continue
		}
		counts[key]++
		if counts[key] > top {
			top = counts[key]
		}
	}
	return float64(top)/float64(len(subs)) > threshold
}
