// Package jobs tracks subtitle generation jobs in memory. State lives for a
// bounded window after completion so clients can poll results, then a
// periodic sweep discards it.
package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"captiond/internal/logging"
)

// Status identifies where a job sits in the pipeline.
type Status string

const (
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusTranslating  Status = "translating"
	StatusFormatting   Status = "formatting"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusNotFound     Status = "not_found"
)

// Terminal reports whether a status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress checkpoints for each stage transition.
const (
	ProgressExtracting   = 0
	ProgressTranscribing = 25
	ProgressTranslating  = 50
	ProgressFormatting   = 75
	ProgressFinalizing   = 90
	ProgressDone         = 100
)

// Job is a snapshot of one subtitle generation run.
type Job struct {
	ID             string    `json:"jobId"`
	Status         Status    `json:"status"`
	Progress       int       `json:"progress"`
	Message        string    `json:"message,omitempty"`
	OriginalName   string    `json:"originalName,omitempty"`
	SourceLanguage string    `json:"sourceLanguage,omitempty"`
	TargetLanguage string    `json:"targetLanguage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Store is a concurrency-safe in-memory job table.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty job table.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		jobs:   make(map[string]*Job),
		logger: logging.WithComponent(logger, "jobs"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new job in the extracting state.
func (s *Store) Create(id, originalName, sourceLanguage, targetLanguage string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	job := &Job{
		ID:             id,
		Status:         StatusExtracting,
		Progress:       ProgressExtracting,
		OriginalName:   originalName,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.jobs[id] = job
	return *job
}

// Update moves a job to a new stage. Progress never moves backwards while a
// job is active; a lower value is ignored in favor of the current one.
func (s *Store) Update(id string, status Status, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	if progress < job.Progress {
		progress = job.Progress
	}
	if progress > ProgressDone {
		progress = ProgressDone
	}
	job.Status = status
	job.Progress = progress
	job.Message = message
	job.UpdatedAt = s.now()
}

// Complete marks a job finished.
func (s *Store) Complete(id, message string) {
	s.Update(id, StatusCompleted, ProgressDone, message)
}

// Fail marks a job failed and resets its progress to zero.
func (s *Store) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusFailed
	job.Progress = 0
	job.Message = message
	job.UpdatedAt = s.now()
}

// Get returns a snapshot of the job, or a not_found placeholder.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		return *job, true
	}
	return Job{ID: id, Status: StatusNotFound}, false
}

// Active returns snapshots of every non-terminal job, oldest first.
func (s *Store) Active() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			active = append(active, *job)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// Sweep drops jobs whose last update is older than retention. It returns the
// number of jobs removed.
func (s *Store) Sweep(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-retention)
	removed := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(retention); removed > 0 {
					s.logger.Info("expired jobs removed", logging.Int("count", removed))
				}
			}
		}
	}()
}
