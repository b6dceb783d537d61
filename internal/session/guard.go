// Package session enforces the idle sign-out policy: after a fixed window
// with no qualifying user activity the session is expired, locally and
// unconditionally, whether or not the remote sign-out succeeds.
package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/scheduler"
	"github.com/cynerra/scanwatch/internal/storage/interfaces"
)

// DefaultIdleTimeout is the inactivity window before forced sign-out.
const DefaultIdleTimeout = 5 * time.Minute

// State is the guard's lifecycle state. Active is the only steady state;
// Expired is terminal and a new guard must be created on the next sign-in.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// SignOutFunc performs the external sign-out action on expiry.
type SignOutFunc func() error

// Guard tracks user activity and expires the session after the idle
// timeout. It never trusts a running timer alone: expiry is always
// recomputed from the persisted last-activity timestamp, because timers do
// not reliably fire while the host is suspended or backgrounded.
type Guard struct {
	kv      interfaces.KeyValueStore
	sched   scheduler.Scheduler
	log     *logrus.Entry
	timeout time.Duration
	signOut SignOutFunc

	mu     sync.Mutex
	state  State
	handle scheduler.Handle
}

// NewGuard creates a guard in the Active state. Nothing is persisted or
// scheduled until Start.
func NewGuard(kv interfaces.KeyValueStore, sched scheduler.Scheduler, timeout time.Duration, signOut SignOutFunc) *Guard {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Guard{
		kv:      kv,
		sched:   sched,
		log:     logging.NewLogger("session"),
		timeout: timeout,
		signOut: signOut,
		state:   StateActive,
	}
}

// Start initializes the guard. If a persisted activity timestamp already
// exceeds the timeout (stale session inherited across a reload), the guard
// expires immediately instead of granting a fresh window.
func (g *Guard) Start() {
	if g.CheckNow() {
		return
	}

	g.mu.Lock()
	if g.state != StateActive {
		g.mu.Unlock()
		return
	}
	g.setFlagLocked()
	g.mu.Unlock()

	if _, ok := g.lastActivity(); !ok {
		g.Touch()
	}
}

// Touch records a qualifying activity event: it persists the timestamp and
// restarts the inactivity timer. A no-op once expired.
func (g *Guard) Touch() {
	g.mu.Lock()
	if g.state != StateActive {
		g.mu.Unlock()
		return
	}

	now := g.sched.Now()
	if err := g.kv.Set(interfaces.KeyLastActivity, []byte(strconv.FormatInt(now.UnixMilli(), 10))); err != nil {
		g.log.WithError(err).Warn("Failed to persist activity timestamp")
	}
	g.rescheduleLocked(g.timeout)
	g.mu.Unlock()
}

// CheckNow recomputes elapsed idle time from the persisted timestamp and
// expires the guard if the window has passed. Called on mount and whenever
// the page regains visibility, compensating for timers that never fired
// while the tab was hidden. Returns true if the guard is (now) expired.
func (g *Guard) CheckNow() bool {
	g.mu.Lock()
	if g.state == StateExpired {
		g.mu.Unlock()
		return true
	}

	last, ok := g.lastActivity()
	if !ok {
		g.mu.Unlock()
		return false
	}

	elapsed := g.sched.Now().Sub(last)
	if elapsed >= g.timeout {
		g.mu.Unlock()
		g.expire()
		return true
	}

	// Realign the timer with the persisted timestamp so it fires at the
	// true deadline, not a full window from now.
	g.rescheduleLocked(g.timeout - elapsed)
	g.mu.Unlock()
	return false
}

// State returns the current guard state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// LastActivity returns the persisted activity timestamp, if any.
func (g *Guard) LastActivity() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActivity()
}

// Shutdown clears the persisted session keys without signing out, so a
// reload cannot inherit a stale active session. Called on window unload and
// when the guard's owner is discarded.
func (g *Guard) Shutdown() {
	g.mu.Lock()
	handle := g.handle
	g.handle = nil
	g.clearKeysLocked()
	g.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
}

// onTimer fires at the scheduled deadline. Expiry is still decided from the
// persisted timestamp, never from the mere fact that the timer fired.
func (g *Guard) onTimer() {
	g.mu.Lock()
	if g.state != StateActive {
		g.mu.Unlock()
		return
	}

	last, ok := g.lastActivity()
	if !ok {
		g.mu.Unlock()
		return
	}

	elapsed := g.sched.Now().Sub(last)
	if elapsed < g.timeout {
		g.rescheduleLocked(g.timeout - elapsed)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	g.expire()
}

// expire transitions to Expired, invokes sign-out and clears local session
// state. Local state is cleared even when the sign-out call fails: the
// security property is to stop acting as an authenticated session locally.
func (g *Guard) expire() {
	g.mu.Lock()
	if g.state == StateExpired {
		g.mu.Unlock()
		return
	}
	g.state = StateExpired
	handle := g.handle
	g.handle = nil
	g.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}

	g.log.Info("Session expired after inactivity, signing out")
	if g.signOut != nil {
		if err := g.signOut(); err != nil {
			g.log.WithError(err).Warn("Sign-out call failed, clearing local session anyway")
		}
	}

	g.mu.Lock()
	g.clearKeysLocked()
	g.mu.Unlock()
}

func (g *Guard) rescheduleLocked(d time.Duration) {
	if g.handle != nil {
		g.handle.Stop()
	}
	g.handle = g.sched.After(d, g.onTimer)
}

func (g *Guard) lastActivity() (time.Time, bool) {
	data, ok, err := g.kv.Get(interfaces.KeyLastActivity)
	if err != nil || !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Corrupt timestamp is treated as absence.
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func (g *Guard) setFlagLocked() {
	if err := g.kv.Set(interfaces.KeySessionFlag, []byte("1")); err != nil {
		g.log.WithError(err).Warn("Failed to persist session flag")
	}
}

func (g *Guard) clearKeysLocked() {
	if err := g.kv.Delete(interfaces.KeyLastActivity); err != nil {
		g.log.WithError(err).Warn("Failed to clear activity key")
	}
	if err := g.kv.Delete(interfaces.KeySessionFlag); err != nil {
		g.log.WithError(err).Warn("Failed to clear session flag")
	}
}
