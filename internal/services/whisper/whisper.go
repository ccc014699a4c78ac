// Package whisper talks to speech-to-text backends: the remote provider's
// transcription endpoint, a local whisper binary, and a synthetic generator
// used when nothing can produce a real transcript.
package whisper

import (
	"context"

	"captiond/internal/subtitle"
)

// Transcriber converts an audio file into timed cues.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error)
}
