package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Caption file formats served by the download endpoint.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// SupportedFormat reports whether the value names a caption format we render.
func SupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatSRT, FormatVTT:
		return true
	}
	return false
}

// RenderSRT renders the sequence as SubRip blocks:
//
//	index
//	HH:MM:SS,mmm --> HH:MM:SS,mmm
//	text
func RenderSRT(subs []Subtitle) string {
	var b strings.Builder
	for i, sub := range subs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(sub.Index))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(sub.Start, ','))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(sub.End, ','))
		b.WriteByte('\n')
		b.WriteString(sub.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderVTT renders the sequence as WebVTT cues. The layout matches SRT with
// the millisecond comma replaced by a period and no cue numbers.
func RenderVTT(subs []Subtitle) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, sub := range subs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatTimestamp(sub.Start, '.'))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(sub.End, '.'))
		b.WriteByte('\n')
		b.WriteString(sub.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTimestamp renders seconds as HH:MM:SS<sep>mmm with zero padding.
// Milliseconds truncate toward zero; they are never rounded up.
func FormatTimestamp(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMillis := int64(seconds * 1000)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

// ParseTimestamp parses HH:MM:SS,mmm (or the period variant) back to seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
