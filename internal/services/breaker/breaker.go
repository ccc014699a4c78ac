// Package breaker implements a circuit breaker around the remote
// transcription provider. Repeated failures open the circuit and calls fail
// fast until a cooldown elapses; a single probe is then allowed through and
// its outcome decides whether the circuit closes again.
package breaker

import (
	"fmt"
	"sync"
	"time"

	"captiond/internal/services"
)

// State identifies the breaker's current mode.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker tracks consecutive failures of a protected call.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// Option customizes a Breaker.
type Option func(*Breaker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New returns a closed breaker that opens after threshold consecutive
// failures and stays open for cooldown.
func New(threshold int, cooldown time.Duration, opts ...Option) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if cooldown <= 0 {
		cooldown = time.Second
	}
	b := &Breaker{
		state:     StateClosed,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. When the circuit is open and the
// cooldown has elapsed, the breaker moves to half-open and admits a single
// probe. Otherwise an open circuit rejects immediately with an error tagged
// services.ErrUnavailable.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		elapsed := b.now().Sub(b.openedAt)
		if elapsed >= b.cooldown {
			b.state = StateHalfOpen
			return nil
		}
		remaining := b.cooldown - elapsed
		return services.Wrap(services.ErrUnavailable, "provider", "breaker",
			fmt.Sprintf("circuit open, retry in %s", remaining.Round(time.Second)), nil)
	default:
		return nil
	}
}

// RecordSuccess resets the breaker to closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}

// RecordFailure counts a failed call. Reaching the threshold opens the
// circuit; a failed half-open probe reopens it and restarts the cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = b.now()
		b.failures = b.threshold
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State returns the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
