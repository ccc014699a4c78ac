package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Normalize reduces a user-supplied language identifier to ISO 639-1,
// falling back to English for empty or unrecognized input. Region subtags
// such as "zh-CN" are stripped.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	if normalized := ToISO2(code); normalized != "" {
		return normalized
	}
	return "en"
}

// DisplayName returns a human-readable language name for any recognized
// code. Codes outside the built-in table fall back to the CLDR English name;
// completely unparseable input returns "Unknown".
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if tag, err := language.Parse(strings.TrimSpace(code)); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return "Unknown"
}

// placeholderPhrases are generic cue texts used when synthesizing subtitles
// for audio that could not be transcribed at all.
var placeholderPhrases = map[string][]string{
	"en": {
		"[Music playing]",
		"[Inaudible dialogue]",
		"[Background sounds]",
		"[Conversation continues]",
		"[Ambient noise]",
	},
	"zh": {
		"[音乐播放中]",
		"[对话不清]",
		"[背景声音]",
		"[对话继续]",
		"[环境噪音]",
	},
	"es": {
		"[Música sonando]",
		"[Diálogo inaudible]",
		"[Sonidos de fondo]",
		"[La conversación continúa]",
		"[Ruido ambiental]",
	},
	"fr": {
		"[Musique]",
		"[Dialogue inaudible]",
		"[Bruits de fond]",
		"[La conversation continue]",
		"[Bruit ambiant]",
	},
	"ja": {
		"[音楽再生中]",
		"[聞き取れない会話]",
		"[背景音]",
		"[会話が続く]",
		"[環境音]",
	},
	"ko": {
		"[음악 재생 중]",
		"[들리지 않는 대화]",
		"[배경 소리]",
		"[대화 계속]",
		"[주변 소음]",
	},
}

// PlaceholderPhrases returns the placeholder cue texts for a language,
// falling back to English.
func PlaceholderPhrases(code string) []string {
	if phrases, ok := placeholderPhrases[Normalize(code)]; ok {
		return phrases
	}
	return placeholderPhrases["en"]
}

// FailedChunkText is the cue body used when a chunk exhausts its retries.
func FailedChunkText(code string) string {
	switch Normalize(code) {
	case "zh":
		return "[此片段转录失败]"
	case "es":
		return "[No se pudo transcribir este segmento]"
	case "fr":
		return "[Échec de la transcription de ce segment]"
	default:
		return "[Transcription unavailable for this segment]"
	}
}
