// Package scheduler abstracts timer creation behind cancellation handles so
// recurring work can be started and torn down deterministically, and so timer
// semantics are testable without real sleeps.
package scheduler

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Stop is idempotent and safe to call
// after the callback has already fired or been cancelled.
type Handle interface {
	Stop()
}

// Scheduler creates timers. Every owning scope must stop the handles it
// creates on teardown; a handle that keeps firing after its owner is gone is
// a defect, not an acceptable leak.
type Scheduler interface {
	// Every invokes fn repeatedly with the given period until stopped.
	Every(d time.Duration, fn func()) Handle
	// After invokes fn once after the given delay unless stopped first.
	After(d time.Duration, fn func()) Handle
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// New returns a wall-clock Scheduler backed by time.Ticker and time.Timer.
func New() Scheduler {
	return &realScheduler{}
}

type realScheduler struct{}

func (s *realScheduler) Now() time.Time { return time.Now() }

func (s *realScheduler) Every(d time.Duration, fn func()) Handle {
	h := &realHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.done:
				return
			}
		}
	}()
	return h
}

func (s *realScheduler) After(d time.Duration, fn func()) Handle {
	h := &realHandle{done: make(chan struct{})}
	timer := time.NewTimer(d)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			fn()
		case <-h.done:
		}
	}()
	return h
}

type realHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *realHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}
