package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/scheduler"
)

// ProgressFunc receives each successful progress tick.
type ProgressFunc func(models.ScanProgress)

// DetailPoller polls individual scans for progress at a fixed cadence.
// Polling a scan stops automatically after the first tick that reports a
// terminal status; Stop and StopAll cover explicit teardown.
type DetailPoller struct {
	backend  Backend
	sched    scheduler.Scheduler
	log      *logrus.Entry
	interval time.Duration
	onTick   ProgressFunc

	mu     sync.Mutex
	active map[string]scheduler.Handle
}

// NewDetailPoller creates a poller. onTick may be nil.
func NewDetailPoller(backend Backend, sched scheduler.Scheduler, interval time.Duration, onTick ProgressFunc) *DetailPoller {
	return &DetailPoller{
		backend:  backend,
		sched:    sched,
		log:      logging.NewLogger("poller"),
		interval: interval,
		onTick:   onTick,
		active:   make(map[string]scheduler.Handle),
	}
}

// Start begins polling a scan. Calling Start again for a scan that is
// already being polled is a no-op; polling different scans is independent.
func (p *DetailPoller) Start(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, running := p.active[id]; running {
		return
	}
	p.active[id] = p.sched.Every(p.interval, func() { p.tick(id) })
}

func (p *DetailPoller) tick(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	progress, err := p.backend.GetProgress(ctx, id)
	if err != nil {
		// Transient failures do not stop polling; the next tick retries.
		p.log.WithError(err).WithField("scan_id", id).Debug("Progress poll failed")
		return
	}

	if p.onTick != nil {
		p.onTick(*progress)
	}

	if progress.Status.IsTerminal() {
		p.Stop(id)
	}
}

// Stop cancels polling for one scan. Safe to call when not running.
func (p *DetailPoller) Stop(id string) {
	p.mu.Lock()
	handle, ok := p.active[id]
	if ok {
		delete(p.active, id)
	}
	p.mu.Unlock()

	if ok {
		handle.Stop()
	}
}

// StopAll cancels every active poll. Must be called when the poller's owner
// is discarded; a timer that keeps firing after that is a defect.
func (p *DetailPoller) StopAll() {
	p.mu.Lock()
	handles := make([]scheduler.Handle, 0, len(p.active))
	for id, handle := range p.active {
		handles = append(handles, handle)
		delete(p.active, id)
	}
	p.mu.Unlock()

	for _, handle := range handles {
		handle.Stop()
	}
}

// Polling reports whether the given scan is currently being polled.
func (p *DetailPoller) Polling(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[id]
	return ok
}
