// Package scheduler provides one-shot, in-memory callbacks keyed by an
// arbitrary string. Scheduling a key that already has a pending job replaces
// it; cancelling by key stops the pending job. Jobs do not survive a process
// restart.
package scheduler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler arranges one future callback per key.
type Scheduler interface {
	// Schedule arranges fn to run once at the given time, replacing any
	// pending job under the same key. It reports false when at is not in
	// the future, in which case nothing is scheduled.
	Schedule(key string, at time.Time, fn func()) bool
	// Cancel stops the pending job for key, if any.
	Cancel(key string)
}

// Timers implements Scheduler on top of an injected clock, so tests can use
// a mock clock instead of waiting on real timers.
type Timers struct {
	clk clock.Clock

	mu   sync.Mutex
	jobs map[string]*clock.Timer
}

// New returns a Scheduler backed by the real wall clock.
func New() *Timers {
	return NewWithClock(clock.New())
}

func NewWithClock(clk clock.Clock) *Timers {
	return &Timers{
		clk:  clk,
		jobs: make(map[string]*clock.Timer),
	}
}

func (t *Timers) Schedule(key string, at time.Time, fn func()) bool {
	delay := at.Sub(t.clk.Now())
	if delay <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.jobs[key]; ok {
		old.Stop()
	}

	var timer *clock.Timer
	timer = t.clk.AfterFunc(delay, func() {
		t.mu.Lock()
		// A replacement may have landed between firing and acquiring the
		// lock; only the current timer gets to run.
		if t.jobs[key] == timer {
			delete(t.jobs, key)
			t.mu.Unlock()
			fn()
			return
		}
		t.mu.Unlock()
	})
	t.jobs[key] = timer
	return true
}

func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.jobs[key]; ok {
		timer.Stop()
		delete(t.jobs, key)
	}
}

// Pending reports whether a job is waiting under key.
func (t *Timers) Pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.jobs[key]
	return ok
}
