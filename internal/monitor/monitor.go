package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/notify"
	"github.com/cynerra/scanwatch/internal/scheduler"
)

// Monitor ties the cache, the transition detector and the notification
// store together and drives the adaptive list poll: refresh on a fixed
// interval while any scan is pending or running, stop as soon as none is.
type Monitor struct {
	cache         *Cache
	notifications *notify.Store
	sched         scheduler.Scheduler
	log           *logrus.Entry
	interval      time.Duration
	opts          api.ListOptions

	mu         sync.Mutex
	pollHandle scheduler.Handle
	cancelSub  func()
	done       chan struct{}
	started    bool
}

// NewMonitor creates a monitor over an existing cache and notification
// store.
func NewMonitor(cache *Cache, notifications *notify.Store, sched scheduler.Scheduler, interval time.Duration) *Monitor {
	return &Monitor{
		cache:         cache,
		notifications: notifications,
		sched:         sched,
		log:           logging.NewLogger("monitor"),
		interval:      interval,
		done:          make(chan struct{}),
	}
}

// Cache exposes the underlying cache for one-shot operations and snapshots.
func (m *Monitor) Cache() *Cache {
	return m.cache
}

// Notifications exposes the notification store.
func (m *Monitor) Notifications() *notify.Store {
	return m.notifications
}

// Start performs an initial refresh and begins adaptive polling. Calling
// Start twice is a no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	events, cancel := m.cache.Subscribe()
	m.mu.Lock()
	m.cancelSub = cancel
	m.mu.Unlock()

	go m.consume(events)

	if _, err := m.cache.Refresh(ctx, m.opts); err != nil {
		// A failed first refresh is not fatal; polling starts as soon as a
		// later refresh or create puts an active scan in the cache.
		m.log.WithError(err).Warn("Initial refresh failed")
	}
	m.ensurePolling()
	return nil
}

// Stop cancels the poll timer and the event subscription. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	handle := m.pollHandle
	m.pollHandle = nil
	cancel := m.cancelSub
	m.cancelSub = nil
	close(m.done)
	m.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) consume(events <-chan Event) {
	for {
		select {
		case <-m.done:
			return
		case ev := <-events:
			switch ev.Type {
			case EventTransition:
				m.notifyTransition(*ev.Transition)
			case EventSnapshot:
				m.ensurePolling()
			}
		}
	}
}

// ensurePolling starts the list poll timer when an active scan exists and
// none is running yet.
func (m *Monitor) ensurePolling() {
	if !m.cache.HasActiveScans() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.pollHandle != nil {
		return
	}
	m.pollHandle = m.sched.Every(m.interval, m.tick)
	m.log.WithField("interval", m.interval).Debug("Adaptive polling started")
}

func (m *Monitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval*2)
	defer cancel()

	// Errors are already recorded on the cache; the next tick retries.
	m.cache.Refresh(ctx, m.opts)

	if !m.cache.HasActiveScans() {
		m.mu.Lock()
		handle := m.pollHandle
		m.pollHandle = nil
		m.mu.Unlock()
		if handle != nil {
			handle.Stop()
			m.log.Debug("No active scans, adaptive polling stopped")
		}
	}
}

// notifyTransition converts one status change into a user-facing
// notification.
func (m *Monitor) notifyTransition(t Transition) {
	if m.notifications == nil {
		return
	}

	var kind models.NotificationKind
	var title string
	switch t.To {
	case models.StatusCompleted:
		kind = models.KindSuccess
		title = fmt.Sprintf("Scan completed: %s", t.Target)
	case models.StatusFailed:
		kind = models.KindError
		title = fmt.Sprintf("Scan failed: %s", t.Target)
	case models.StatusCancelled:
		kind = models.KindWarning
		title = fmt.Sprintf("Scan cancelled: %s", t.Target)
	default:
		kind = models.KindInfo
		title = fmt.Sprintf("Scan %s: %s", t.To, t.Target)
	}

	message := m.describeScan(t)
	m.notifications.Add(kind, title, message, t.ScanID)
}

func (m *Monitor) describeScan(t Transition) string {
	if t.To != models.StatusCompleted {
		return ""
	}
	for _, scan := range m.cache.Snapshot() {
		if scan.ID == t.ScanID && scan.FindingsCount != nil {
			return fmt.Sprintf("%d findings", *scan.FindingsCount)
		}
	}
	return ""
}
