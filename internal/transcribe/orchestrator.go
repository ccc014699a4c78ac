// Package transcribe coordinates transcription of a whole recording:
// size-based chunking, sequential per-chunk retries behind a circuit
// breaker, an alternate transport path for connectivity trouble, placeholder
// cues for chunks that never succeed, and host-local then synthetic
// fallbacks when the provider produces nothing at all.
package transcribe

import (
	"context"
	"log/slog"
	"os"
	"time"

	"captiond/internal/language"
	"captiond/internal/logging"
	"captiond/internal/media/segmenter"
	"captiond/internal/services"
	"captiond/internal/services/breaker"
	"captiond/internal/services/whisper"
	"captiond/internal/subtitle"
)

// maxConsecutiveChunkFailures stops hammering a dead provider mid-job.
const maxConsecutiveChunkFailures = 3

// Remote is the provider client surface the orchestrator drives.
type Remote interface {
	Transcribe(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error)
	TranscribeDirect(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error)
}

// LocalFallback is a host-local transcriber used when the provider fails.
type LocalFallback interface {
	Available() bool
	Transcribe(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error)
}

// Splitter cuts audio into provider-sized segments.
type Splitter interface {
	Split(ctx context.Context, audioPath string, totalSeconds float64, dir string) ([]segmenter.Segment, error)
}

// Options tune the orchestrator.
type Options struct {
	ChunkThresholdBytes int64
	MaxAttempts         int
	SuspiciousThreshold float64
}

// Result is the outcome of transcribing one recording.
type Result struct {
	Subtitles         []subtitle.Subtitle
	Chunked           bool
	PlaceholderChunks int
	UsedLocalFallback bool
	Synthetic         bool
}

// Orchestrator runs the transcription stage.
type Orchestrator struct {
	remote  Remote
	local   LocalFallback
	split   Splitter
	breaker *breaker.Breaker
	opts    Options
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleep overrides retry pauses, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// New wires an Orchestrator.
func New(remote Remote, local LocalFallback, split Splitter, brk *breaker.Breaker, opts Options, logger *slog.Logger, options ...Option) *Orchestrator {
	if opts.ChunkThresholdBytes <= 0 {
		opts.ChunkThresholdBytes = 20 * 1024 * 1024
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	o := &Orchestrator{
		remote:  remote,
		local:   local,
		split:   split,
		breaker: brk,
		opts:    opts,
		logger:  logging.WithComponent(logger, "transcribe"),
		sleep:   services.Sleep,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

// Run transcribes audioPath. Audio over the chunk threshold is segmented and
// processed strictly in order; smaller files go through in one request.
func (o *Orchestrator) Run(ctx context.Context, audioPath, languageCode string, totalSeconds float64, workDir string) (Result, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "transcribe", "run", "stat audio", err)
	}

	if info.Size() <= o.opts.ChunkThresholdBytes {
		return o.runWhole(ctx, audioPath, languageCode, totalSeconds)
	}
	return o.runChunked(ctx, audioPath, languageCode, totalSeconds, workDir)
}

func (o *Orchestrator) runWhole(ctx context.Context, audioPath, languageCode string, totalSeconds float64) (Result, error) {
	subs, err := o.transcribeWithRetry(ctx, audioPath, languageCode)
	if err == nil && len(subs) > 0 {
		return Result{Subtitles: subs}, nil
	}
	if err != nil {
		o.logger.Warn("provider transcription failed, trying fallbacks", logging.Error(err))
	}
	return o.fallback(ctx, audioPath, languageCode, totalSeconds)
}

func (o *Orchestrator) runChunked(ctx context.Context, audioPath, languageCode string, totalSeconds float64, workDir string) (Result, error) {
	segments, err := o.split.Split(ctx, audioPath, totalSeconds, workDir)
	if err != nil {
		return Result{}, err
	}
	defer segmenter.Cleanup(segments)

	result := Result{Chunked: true}
	var combined []subtitle.Subtitle
	consecutiveFailures := 0
	abandoned := false

	for _, segment := range segments {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		if abandoned {
			combined = append(combined, placeholderCue(segment, languageCode))
			result.PlaceholderChunks++
			continue
		}

		subs, err := o.transcribeWithRetry(ctx, segment.Path, languageCode)
		os.Remove(segment.Path)
		if err != nil {
			o.logger.Warn("chunk exhausted retries, inserting placeholder",
				logging.Int("chunk", segment.Index),
				logging.Error(err))
			combined = append(combined, placeholderCue(segment, languageCode))
			result.PlaceholderChunks++
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveChunkFailures {
				o.logger.Error("too many consecutive chunk failures, abandoning provider for this job",
					logging.Int("failures", consecutiveFailures))
				abandoned = true
			}
			continue
		}

		consecutiveFailures = 0
		combined = append(combined, subtitle.Shift(subs, segment.Start)...)
	}

	if result.PlaceholderChunks == len(segments) {
		// Nothing real came back; the whole-file fallbacks are the better
		// answer than a file of placeholders.
		fallbackResult, err := o.fallback(ctx, audioPath, languageCode, totalSeconds)
		if err != nil {
			return Result{}, err
		}
		fallbackResult.Chunked = true
		fallbackResult.PlaceholderChunks = result.PlaceholderChunks
		return fallbackResult, nil
	}

	subtitle.SortByStart(combined)
	subtitle.Reindex(combined)
	result.Subtitles = combined
	return result, nil
}

// transcribeWithRetry issues one provider call per attempt, classifying each
// failure. An open circuit fails the chunk immediately. Connectivity errors
// are retried once over the direct transport before counting against the
// attempt budget.
func (o *Orchestrator) transcribeWithRetry(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error) {
	var lastErr error
	triedDirect := false

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if err := o.breaker.Allow(); err != nil {
			return nil, err
		}

		subs, err := o.remote.Transcribe(ctx, audioPath, languageCode)
		if err == nil {
			if whisper.Suspicious(subs, o.opts.SuspiciousThreshold) && attempt < o.opts.MaxAttempts {
				o.breaker.RecordFailure()
				lastErr = services.Wrap(services.ErrTransient, "transcribe", "quality", "degenerate transcript rejected", nil)
				o.logger.Warn("suspicious transcript, retrying", logging.Int("attempt", attempt))
				if err := o.sleep(ctx, services.BackoffDelay(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			o.breaker.RecordSuccess()
			return subs, nil
		}

		o.breaker.RecordFailure()
		lastErr = err

		if services.IsConnectivity(err) && !triedDirect {
			triedDirect = true
			o.logger.Warn("connectivity failure, retrying over direct transport", logging.Error(err))
			subs, directErr := o.remote.TranscribeDirect(ctx, audioPath, languageCode)
			if directErr == nil {
				o.breaker.RecordSuccess()
				return subs, nil
			}
			o.breaker.RecordFailure()
			lastErr = directErr
		}

		if !services.Retryable(lastErr) {
			return nil, lastErr
		}
		if attempt < o.opts.MaxAttempts {
			if err := o.sleep(ctx, services.RetryDelay(lastErr, attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// fallback runs the degraded chain: host-local whisper first, then a fully
// synthetic transcript.
func (o *Orchestrator) fallback(ctx context.Context, audioPath, languageCode string, totalSeconds float64) (Result, error) {
	if o.local != nil && o.local.Available() {
		subs, err := o.local.Transcribe(ctx, audioPath, languageCode)
		if err == nil && len(subs) > 0 {
			o.logger.Info("transcribed with local whisper fallback")
			return Result{Subtitles: subs, UsedLocalFallback: true}, nil
		}
		if err != nil {
			o.logger.Warn("local whisper fallback failed", logging.Error(err))
		}
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	o.logger.Warn("synthesizing placeholder transcript")
	subs := whisper.Synthesize(audioPath, languageCode, totalSeconds)
	return Result{Subtitles: subs, Synthetic: true}, nil
}

func placeholderCue(segment segmenter.Segment, languageCode string) subtitle.Subtitle {
	return subtitle.Subtitle{
		Start: segment.Start,
		End:   segment.Start + segment.Duration,
		Text:  language.FailedChunkText(languageCode),
	}
}
