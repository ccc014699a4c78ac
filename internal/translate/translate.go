// Package translate renders a filtered transcript into the target language.
// Cues are grouped into character-bounded batches sent sequentially with a
// pause in between; a batch that keeps failing falls back to its original
// text so translation trouble never loses timing information.
package translate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"captiond/internal/config"
	"captiond/internal/filter"
	"captiond/internal/logging"
	"captiond/internal/services"
	"captiond/internal/services/translator"
	"captiond/internal/subtitle"
)

// BatchTranslator is the provider call one batch needs.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, lines []string, systemPrompt string) ([]string, error)
}

// Stage drives batched translation.
type Stage struct {
	client      BatchTranslator
	maxChars    int
	pause       time.Duration
	maxAttempts int
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes a Stage.
type Option func(*Stage)

// WithSleep overrides pause handling, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Stage) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New returns a translation stage using the given client and limits.
func New(client BatchTranslator, cfg config.Translate, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		client:      client,
		maxChars:    cfg.MaxBatchChars,
		pause:       time.Duration(cfg.BatchPauseMillis) * time.Millisecond,
		maxAttempts: cfg.MaxAttempts,
		logger:      logging.WithComponent(logger, "translate"),
		sleep:       services.Sleep,
	}
	if s.maxChars < 1 {
		s.maxChars = 2000
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate returns a copy of subs with translated text. Timing, order, and
// cue count are preserved exactly; cues whose batch could not be translated
// keep their source text.
func (s *Stage) Translate(ctx context.Context, subs []subtitle.Subtitle, sourceLang, targetLang string, contentType filter.ContentType) ([]subtitle.Subtitle, error) {
	out := make([]subtitle.Subtitle, len(subs))
	copy(out, subs)
	if len(out) == 0 {
		return out, nil
	}

	prompt := translator.SystemPrompt(sourceLang, targetLang, contentType)
	batches := s.batch(out)

	for i, batch := range batches {
		if i > 0 && s.pause > 0 {
			if err := s.sleep(ctx, s.pause); err != nil {
				return nil, err
			}
		}
		if err := s.translateBatch(ctx, out, batch, prompt); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// batch groups cue positions so each batch stays under the character limit.
// A single oversized cue still forms its own batch.
type batchSpan struct {
	start, end int // index range into the cue slice, end exclusive
}

func (s *Stage) batch(subs []subtitle.Subtitle) []batchSpan {
	var spans []batchSpan
	start := 0
	chars := 0
	for i, sub := range subs {
		size := len(sub.Text)
		if i > start && chars+size > s.maxChars {
			spans = append(spans, batchSpan{start: start, end: i})
			start = i
			chars = 0
		}
		chars += size
	}
	spans = append(spans, batchSpan{start: start, end: len(subs)})
	return spans
}

func (s *Stage) translateBatch(ctx context.Context, subs []subtitle.Subtitle, span batchSpan, prompt string) error {
	lines := make([]string, 0, span.end-span.start)
	for _, sub := range subs[span.start:span.end] {
		lines = append(lines, sub.Text)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		translated, err := s.client.TranslateBatch(ctx, lines, prompt)
		if err == nil {
			for i, text := range translated {
				subs[span.start+i].Text = text
			}
			// A short response still aligns by position; the tail keeps
			// its source text.
			if missing := len(lines) - len(translated); missing > 0 {
				s.logger.Warn("translation response short, keeping source text for tail",
					logging.Int("missing", missing))
			}
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryableBatchError(err) || attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, services.RetryDelay(err, attempt)); err != nil {
			return err
		}
	}

	// Keep the source text for this batch rather than failing the job.
	s.logger.Warn("batch translation failed, keeping source text",
		logging.Int("cues", span.end-span.start),
		logging.Error(lastErr))
	return nil
}

func retryableBatchError(err error) bool {
	return services.Retryable(err) || errors.Is(err, services.ErrTransient)
}
