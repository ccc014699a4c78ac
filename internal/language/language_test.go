package language

import "testing"

func TestToISO2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"English", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"chi", "zh"},
		{"xx", "xx"},
		{"unknownlang", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ToISO2(tc.in); got != tc.want {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"zh-CN", "zh"},
		{"pt_BR", "pt"},
		{"Spanish", "es"},
		{"nonsense-word", "en"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("zh"); got != "Chinese" {
		t.Errorf("DisplayName(zh) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName(empty) = %q", got)
	}
	// Outside the built-in table, CLDR supplies the name.
	if got := DisplayName("th"); got != "Thai" {
		t.Errorf("DisplayName(th) = %q", got)
	}
}

func TestPlaceholderPhrasesFallBackToEnglish(t *testing.T) {
	phrases := PlaceholderPhrases("sw")
	if len(phrases) == 0 {
		t.Fatal("expected phrases")
	}
	if phrases[0] != "[Music playing]" {
		t.Errorf("expected English fallback, got %q", phrases[0])
	}
	zh := PlaceholderPhrases("zh-TW")
	if zh[0] != "[音乐播放中]" {
		t.Errorf("expected Chinese phrases for zh-TW, got %q", zh[0])
	}
}

func TestFailedChunkText(t *testing.T) {
	if got := FailedChunkText("es"); got != "[No se pudo transcribir este segmento]" {
		t.Errorf("unexpected text %q", got)
	}
	if got := FailedChunkText("de"); got != "[Transcription unavailable for this segment]" {
		t.Errorf("expected English fallback, got %q", got)
	}
}
