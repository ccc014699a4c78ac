package whisper

import (
	"hash/fnv"
	"math/rand"

	"captiond/internal/language"
	"captiond/internal/subtitle"
)

// maxSyntheticSegments caps the fully synthetic transcript size.
const maxSyntheticSegments = 50

// Synthesize produces placeholder cues spanning the audio duration when no
// backend could transcribe it. Output is deterministic for a given path so
// repeated runs over the same file agree: cue windows run three to five
// seconds with a short gap in between.
func Synthesize(audioPath, languageCode string, totalSeconds float64) []subtitle.Subtitle {
	if totalSeconds <= 0 {
		totalSeconds = 30
	}
	phrases := language.PlaceholderPhrases(languageCode)

	hasher := fnv.New64a()
	hasher.Write([]byte(audioPath))
	rng := rand.New(rand.NewSource(int64(hasher.Sum64())))

	var subs []subtitle.Subtitle
	cursor := 0.0
	for cursor < totalSeconds && len(subs) < maxSyntheticSegments {
		window := 3 + rng.Float64()*2
		end := cursor + window
		if end > totalSeconds {
			end = totalSeconds
		}
		if end-cursor < 0.5 {
			break
		}
		subs = append(subs, subtitle.Subtitle{
			Start: cursor,
			End:   end,
			Text:  phrases[len(subs)%len(phrases)],
		})
		cursor = end + 0.5 + rng.Float64()
	}

	subtitle.Reindex(subs)
	return subs
}
