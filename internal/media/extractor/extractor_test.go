package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractRunsFFmpeg(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio.wav")

	var captured []string
	ex := New("ffmpeg", nil, WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		captured = append([]string{name}, args...)
		return os.WriteFile(audioPath, []byte("RIFFdata"), 0o644)
	}))

	if err := ex.Extract(context.Background(), filepath.Join(dir, "movie.mp4"), audioPath); err != nil {
		t.Fatalf("extract: %v", err)
	}

	joined := strings.Join(captured, " ")
	for _, want := range []string{"ffmpeg", "-vn", "-ac 1", "-ar 16000", "pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Errorf("command %q missing %q", joined, want)
		}
	}
}

func TestExtractCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio.wav")

	ex := New("", nil, WithCommandRunner(func(context.Context, string, ...string) error {
		// Simulate ffmpeg dying after opening the output file.
		os.WriteFile(audioPath, []byte("partial"), 0o644)
		return errors.New("exit status 1")
	}))

	if err := ex.Extract(context.Background(), "in.mp4", audioPath); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := os.Stat(audioPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("partial output should be removed")
	}
}

func TestExtractRejectsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio.wav")

	ex := New("ffmpeg", nil, WithCommandRunner(func(context.Context, string, ...string) error {
		return os.WriteFile(audioPath, nil, 0o644)
	}))

	if err := ex.Extract(context.Background(), "in.mp4", audioPath); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestExtractValidatesPaths(t *testing.T) {
	ex := New("ffmpeg", nil)
	if err := ex.Extract(context.Background(), "", "out.wav"); err == nil {
		t.Fatal("expected validation error")
	}
}
