// Package extractor pulls the audio track out of an uploaded video as
// mono 16 kHz PCM, the input format the transcription provider expects.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"captiond/internal/logging"
	"captiond/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Extractor converts video files into transcription-ready audio.
type Extractor struct {
	binary string
	run    commandRunner
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithCommandRunner overrides command execution, for tests.
func WithCommandRunner(run commandRunner) Option {
	return func(e *Extractor) {
		if run != nil {
			e.run = run
		}
	}
}

// New returns an Extractor driving the given ffmpeg binary.
func New(binary string, logger *slog.Logger, opts ...Option) *Extractor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	e := &Extractor{
		binary: binary,
		logger: logging.WithComponent(logger, "extractor"),
	}
	e.run = e.execute
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract writes the audio track of videoPath to audioPath as mono 16 kHz
// PCM WAV. A partially written output file is removed on failure.
func (e *Extractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	videoPath = strings.TrimSpace(videoPath)
	audioPath = strings.TrimSpace(audioPath)
	if videoPath == "" || audioPath == "" {
		return services.Wrap(services.ErrValidation, "extract", "audio", "source and destination paths required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "audio", "prepare output directory", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		audioPath,
	}

	e.logger.Debug("extracting audio",
		logging.String("source", videoPath),
		logging.String("destination", audioPath))

	if err := e.run(ctx, e.binary, args...); err != nil {
		os.Remove(audioPath)
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "audio extraction failed", err)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "no output produced", err)
	}
	if info.Size() == 0 {
		os.Remove(audioPath)
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "empty output produced", nil)
	}
	return nil
}

func (e *Extractor) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
