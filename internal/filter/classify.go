package filter

import (
	"strings"
	"unicode/utf8"
)

// ContentType labels a transcript so later stages can pick prompts and
// thresholds appropriate for the material.
type ContentType string

const (
	ContentGeneral      ContentType = "general"
	ContentConversation ContentType = "conversation"
	ContentAdult        ContentType = "adult"
)

// Analysis is the outcome of transcript classification. Confidence is in
// [0, 1]; general content is always reported at 0.5.
type Analysis struct {
	Type              ContentType
	AdultRatio        float64
	ConversationRatio float64
	Confidence        float64
}

var adultKeywords = []string{
	"sex", "nude", "naked", "porn", "erotic", "orgasm",
	"moan", "moaning", "aroused", "intimate",
	"做爱", "裸体", "色情", "性感", "呻吟", "高潮", "亲热",
}

var conversationKeywords = []string{
	"yeah", "okay", "right", "you know", "i mean", "well,",
	"hello", "hi,", "thanks", "thank you", "really?",
	"对吧", "是吗", "你好", "谢谢", "好的", "没问题", "真的吗",
}

// Classify joins the cue texts and scores keyword occurrences against the
// total word count. Crossing adultThreshold wins over crossing
// conversationThreshold.
func Classify(texts []string, adultThreshold, conversationThreshold float64) Analysis {
	allText := strings.ToLower(strings.Join(texts, " "))
	words := len(strings.Fields(allText))
	if words == 0 {
		return Analysis{Type: ContentGeneral, Confidence: 0.5}
	}

	adultScore := 0
	for _, keyword := range adultKeywords {
		adultScore += countOccurrences(allText, keyword)
	}
	conversationScore := 0
	for _, keyword := range conversationKeywords {
		conversationScore += countOccurrences(allText, keyword)
	}

	analysis := Analysis{
		Type:              ContentGeneral,
		AdultRatio:        float64(adultScore) / float64(words),
		ConversationRatio: float64(conversationScore) / float64(words),
		Confidence:        0.5,
	}
	switch {
	case analysis.AdultRatio > adultThreshold:
		analysis.Type = ContentAdult
		analysis.Confidence = clamp01(analysis.AdultRatio * 10)
	case analysis.ConversationRatio > conversationThreshold:
		analysis.Type = ContentConversation
		analysis.Confidence = clamp01(analysis.ConversationRatio * 5)
	}
	return analysis
}

// countOccurrences counts non-overlapping keyword hits in text. A keyword
// that starts or ends with an ASCII word character must sit on a word
// boundary there; CJK keywords match as plain substrings.
func countOccurrences(text, keyword string) int {
	count := 0
	for offset := 0; ; {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return count
		}
		pos := offset + idx
		if boundedAt(text, pos, keyword) {
			count++
		}
		offset = pos + len(keyword)
	}
}

func boundedAt(text string, pos int, keyword string) bool {
	first, _ := utf8.DecodeRuneInString(keyword)
	if isWordChar(first) && pos > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if isWordChar(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(keyword)
	end := pos + len(keyword)
	if isWordChar(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordChar(next) {
			return false
		}
	}
	return true
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
