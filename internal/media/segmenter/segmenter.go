// Package segmenter slices extracted audio into provider-sized pieces.
// Oversized pieces are re-cut at half duration until every file fits under
// the hard size ceiling.
package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"captiond/internal/logging"
	"captiond/internal/services"
)

// minSegmentSeconds stops the recursive re-split from degenerating when a
// slice cannot be made small enough.
const minSegmentSeconds = 5

// Segment is one audio slice with its position in the source timeline.
type Segment struct {
	Path     string
	Start    float64
	Duration float64
	Index    int
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Segmenter cuts audio files with ffmpeg.
type Segmenter struct {
	binary        string
	targetSeconds float64
	maxBytes      int64
	run           commandRunner
	logger        *slog.Logger
}

// Option customizes a Segmenter.
type Option func(*Segmenter)

// WithCommandRunner overrides command execution, for tests.
func WithCommandRunner(run commandRunner) Option {
	return func(s *Segmenter) {
		if run != nil {
			s.run = run
		}
	}
}

// New returns a Segmenter producing slices of roughly targetSeconds that
// never exceed maxBytes on disk.
func New(binary string, targetSeconds float64, maxBytes int64, logger *slog.Logger, opts ...Option) *Segmenter {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if targetSeconds <= 0 {
		targetSeconds = 180
	}
	if maxBytes <= 0 {
		maxBytes = 25 * 1024 * 1024
	}
	s := &Segmenter{
		binary:        binary,
		targetSeconds: targetSeconds,
		maxBytes:      maxBytes,
		logger:        logging.WithComponent(logger, "segmenter"),
	}
	s.run = s.execute
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split cuts audioPath into equal slices of at most the target duration,
// writing them into dir. Slices that still exceed the size ceiling are
// re-cut at half their duration. On any failure every file produced so far
// is removed.
func (s *Segmenter) Split(ctx context.Context, audioPath string, totalSeconds float64, dir string) ([]Segment, error) {
	if totalSeconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "segment", "split", "audio duration unknown", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "segment", "split", "prepare segment directory", err)
	}

	var segments []Segment
	seq := 0
	if err := s.cut(ctx, audioPath, 0, totalSeconds, s.targetSeconds, dir, &segments, &seq); err != nil {
		Cleanup(segments)
		return nil, err
	}

	for i := range segments {
		segments[i].Index = i
	}
	s.logger.Info("audio segmented",
		logging.Int("segments", len(segments)),
		logging.Float64("total_seconds", totalSeconds))
	return segments, nil
}

// cut slices [offset, offset+span) into pieces of at most target seconds,
// appending results in timeline order.
func (s *Segmenter) cut(ctx context.Context, src string, offset, span, target float64, dir string, out *[]Segment, seq *int) error {
	count := int(math.Ceil(span / target))
	if count < 1 {
		count = 1
	}
	each := span / float64(count)

	for i := 0; i < count; i++ {
		start := offset + each*float64(i)
		path := filepath.Join(dir, fmt.Sprintf("segment_%04d.wav", *seq))
		*seq++

		if err := s.extract(ctx, src, start, each, path); err != nil {
			os.Remove(path)
			return services.Wrap(services.ErrExternalTool, "segment", "ffmpeg", "cut slice", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "segment", "ffmpeg", "no slice produced", err)
		}

		if info.Size() > s.maxBytes {
			os.Remove(path)
			if each <= minSegmentSeconds {
				return services.Wrap(services.ErrValidation, "segment", "split",
					fmt.Sprintf("slice of %.1fs still exceeds %d bytes", each, s.maxBytes), nil)
			}
			s.logger.Debug("slice oversized, re-cutting",
				logging.Float64("start", start),
				logging.Float64("seconds", each),
				logging.Int64("bytes", info.Size()))
			if err := s.cut(ctx, src, start, each, each/2, dir, out, seq); err != nil {
				return err
			}
			continue
		}

		*out = append(*out, Segment{Path: path, Start: start, Duration: each})
	}
	return nil
}

func (s *Segmenter) extract(ctx context.Context, src string, start, duration float64, dest string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", src,
		"-c", "copy",
		dest,
	}
	return s.run(ctx, s.binary, args...)
}

func (s *Segmenter) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Cleanup deletes every segment file, ignoring those already gone.
func Cleanup(segments []Segment) {
	for _, segment := range segments {
		if segment.Path != "" {
			os.Remove(segment.Path)
		}
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
