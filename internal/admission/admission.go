// Package admission gates new uploads per client. A client may run one job
// at a time and must wait out a short cooldown between submissions; stale
// history is purged opportunistically.
package admission

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"captiond/internal/logging"
)

// DuplicateError reports a client that already has a job in flight.
type DuplicateError struct {
	JobID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("upload already in progress (job %s)", e.JobID)
}

// RateLimitedError reports a client still inside the submission cooldown.
type RateLimitedError struct {
	WaitSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.WaitSeconds)
}

// Controller enforces per-client admission rules.
type Controller struct {
	mu        sync.Mutex
	inflight  map[string]string    // client key -> job id
	history   map[string]time.Time // client key -> last completed submission
	cooldown  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Controller with the given cooldown between submissions and
// history retention window.
func New(cooldown, retention time.Duration, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		inflight:  make(map[string]string),
		history:   make(map[string]time.Time),
		cooldown:  cooldown,
		retention: retention,
		logger:    logging.WithComponent(logger, "admission"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientKey derives the admission identity from transport attributes.
func ClientKey(remoteAddr, userAgent string) string {
	host := strings.TrimSpace(remoteAddr)
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.HasSuffix(host, "]") {
		host = host[:idx]
	}
	return host + "|" + strings.TrimSpace(userAgent)
}

// Admit reserves a job slot for the client. It returns a fresh job ID, a
// *DuplicateError when the client already has a job running, or a
// *RateLimitedError when the cooldown has not elapsed.
func (c *Controller) Admit(clientKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.purgeLocked(now)

	if jobID, ok := c.inflight[clientKey]; ok {
		return "", &DuplicateError{JobID: jobID}
	}

	if last, ok := c.history[clientKey]; ok {
		elapsed := now.Sub(last)
		if elapsed < c.cooldown {
			wait := int(math.Ceil((c.cooldown - elapsed).Seconds()))
			if wait < 1 {
				wait = 1
			}
			return "", &RateLimitedError{WaitSeconds: wait}
		}
	}

	jobID := uuid.NewString()
	c.inflight[clientKey] = jobID
	c.logger.Debug("client admitted", logging.String(logging.FieldJobID, jobID))
	return jobID, nil
}

// Release frees the client's in-flight slot and records the submission time
// for cooldown accounting.
func (c *Controller) Release(clientKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, clientKey)
	c.history[clientKey] = c.now()
}

// InFlight returns the number of jobs currently admitted.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// HistoryCount returns the number of clients inside the cooldown-history
// window.
func (c *Controller) HistoryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked(c.now())
	return len(c.history)
}

func (c *Controller) purgeLocked(now time.Time) {
	cutoff := now.Add(-c.retention)
	for key, last := range c.history {
		if last.Before(cutoff) {
			delete(c.history, key)
		}
	}
}
