// Package daemon assembles the subtitle service: it wires the provider
// clients, the media toolkit, and the stores into one pipeline, enforces
// single-instance execution with a file lock, and owns the periodic
// sweeps and the HTTP server lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"captiond/internal/admission"
	"captiond/internal/artifacts"
	"captiond/internal/config"
	"captiond/internal/fileutil"
	"captiond/internal/filter"
	"captiond/internal/jobs"
	"captiond/internal/logging"
	"captiond/internal/media/extractor"
	"captiond/internal/media/segmenter"
	"captiond/internal/pipeline"
	"captiond/internal/server"
	"captiond/internal/services/breaker"
	"captiond/internal/services/translator"
	"captiond/internal/services/whisper"
	"captiond/internal/transcribe"
	"captiond/internal/translate"
)

// Caption files outlive job state but not disk space; stale ones are
// swept on a slow cadence.
const (
	artifactRetention     = 7 * 24 * time.Hour
	artifactSweepInterval = time.Hour
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *artifacts.Store
	jobs      *jobs.Store
	admission *admission.Controller
	server    *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New wires the full processing stack around an open artifact store.
func New(cfg *config.Config, store *artifacts.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, artifact store, and logger")
	}

	jobStore := jobs.NewStore(logger)
	ctrl := admission.New(
		time.Duration(cfg.Admission.CooldownSeconds)*time.Second,
		time.Duration(cfg.Admission.RetentionSeconds)*time.Second,
		logger)

	remote := whisper.NewClient(whisper.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		Model:          cfg.Provider.TranscriptionModel,
		Temperature:    cfg.Provider.Temperature,
		TimeoutSeconds: cfg.Provider.RequestTimeoutSecs,
	})
	local := whisper.NewLocal(cfg.Provider.LocalWhisperBinary)
	brk := breaker.New(
		cfg.Provider.BreakerThreshold,
		time.Duration(cfg.Provider.BreakerCooldownSecs)*time.Second)
	seg := segmenter.New(cfg.Media.FFmpegBinary, cfg.Media.SegmentSeconds, cfg.Media.MaxSegmentBytes, logger)
	orchestrator := transcribe.New(remote, local, seg, brk, transcribe.Options{
		ChunkThresholdBytes: cfg.Media.ChunkThresholdBytes,
		MaxAttempts:         cfg.Provider.MaxAttempts,
		SuspiciousThreshold: cfg.Provider.SuspiciousRejectRate,
	}, logger)

	stage := translate.New(translator.NewClient(translator.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		Model:          cfg.Provider.TranslationModel,
		TimeoutSeconds: cfg.Provider.RequestTimeoutSecs,
	}), cfg.Translate, logger)

	pipe := pipeline.New(cfg, pipeline.Deps{
		Extractor:   extractor.New(cfg.Media.FFmpegBinary, logger),
		Transcriber: orchestrator,
		Filter:      filter.New(cfg.Filter, logger),
		Translator:  stage,
		Jobs:        jobStore,
		Artifacts:   store,
	}, logger)

	srv := server.New(cfg, server.Deps{
		Admission: ctrl,
		Jobs:      jobStore,
		Pipeline:  pipe,
		Artifacts: store,
	}, logger)

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "daemon"),
		store:     store,
		jobs:      jobStore,
		admission: ctrl,
		server:    srv,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, launches the sweeps, and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another captiond instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.jobs.StartSweeper(runCtx,
		time.Duration(d.cfg.Jobs.SweepIntervalMinutes)*time.Minute,
		time.Duration(d.cfg.Jobs.RetentionMinutes)*time.Minute)
	go d.sweepArtifacts(runCtx)

	if err := d.server.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("captiond started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()))
	return nil
}

// Stop halts serving and background work and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("captiond stopped")
}

// Close stops the daemon and releases the artifact store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Addr returns the bound API address after Start.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

func (d *Daemon) sweepArtifacts(ctx context.Context) {
	ticker := time.NewTicker(artifactSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-artifactRetention)
			paths, err := d.store.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				d.logger.Warn("artifact sweep failed", logging.Error(err))
				continue
			}
			if len(paths) > 0 {
				fileutil.RemoveQuietly(paths...)
				d.logger.Info("removed expired caption files", logging.Int("count", len(paths)))
			}
		}
	}
}
