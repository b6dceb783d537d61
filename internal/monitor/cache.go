// Package monitor keeps a client-side view of backend scans consistent
// without a push channel: a serialized refresh cache, a per-scan detail
// poller and a transition detector feeding deduplicated events.
package monitor

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/storage/interfaces"
)

// Backend is the subset of the API client the cache depends on.
type Backend interface {
	ListScans(ctx context.Context, opts api.ListOptions) ([]models.Scan, error)
	CreateScan(ctx context.Context, req api.CreateScanRequest) (*models.Scan, error)
	CancelScan(ctx context.Context, id string) (bool, error)
	DeleteScan(ctx context.Context, id string) (bool, error)
	GetProgress(ctx context.Context, id string) (*models.ScanProgress, error)
}

// Cache holds the current known scan list. All mutations happen under one
// mutex and refreshes for the same filter are serialized by an explicit
// in-flight guard, so the transition detector always sees snapshots in order.
type Cache struct {
	backend Backend
	store   interfaces.KeyValueStore
	log     *logrus.Entry

	mu         sync.Mutex
	scans      []models.Scan
	refreshing map[string]bool
	lastErr    string
	detector   *TransitionDetector
	subs       []*subscriber
}

// NewCache creates a cache. store may be nil; when set, each successful
// refresh is mirrored to the jobs_cache key and hydrated back on cold start
// so the UI has something to show before the first refresh lands.
func NewCache(backend Backend, store interfaces.KeyValueStore) *Cache {
	c := &Cache{
		backend:    backend,
		store:      store,
		log:        logging.NewLogger("monitor"),
		refreshing: make(map[string]bool),
		detector:   NewTransitionDetector(),
	}
	c.hydrate()
	return c
}

// hydrate loads the offline snapshot. The loaded scans also seed the
// detector baseline, so scans already terminal before this process started
// never produce a transition event.
func (c *Cache) hydrate() {
	if c.store == nil {
		return
	}

	data, ok, err := c.store.Get(interfaces.KeyScanCache)
	if err != nil || !ok {
		return
	}

	var scans []models.Scan
	if err := json.Unmarshal(data, &scans); err != nil {
		c.log.WithError(err).Warn("Ignoring corrupt offline scan cache")
		return
	}

	c.mu.Lock()
	c.scans = scans
	c.detector.Observe(scans)
	c.mu.Unlock()
}

// Subscribe registers an event channel. The returned cancel func must be
// called when the subscriber goes away.
func (c *Cache) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 16), closed: make(chan struct{})}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		for i, s := range c.subs {
			if s == sub {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		close(sub.closed)
	}
	return sub.ch, cancel
}

func (c *Cache) emit(ev Event) {
	c.mu.Lock()
	subs := make([]*subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.send(ev)
	}
}

func refreshKey(opts api.ListOptions) string {
	return string(opts.Status)
}

// Refresh fetches the scan list. A call while another refresh for the same
// filter is in flight is a no-op returning the current snapshot, which
// prevents duplicate network load and out-of-order overwrites. A failed
// refresh leaves the previous snapshot untouched and records the error.
func (c *Cache) Refresh(ctx context.Context, opts api.ListOptions) ([]models.Scan, error) {
	key := refreshKey(opts)

	c.mu.Lock()
	if c.refreshing[key] {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, nil
	}
	c.refreshing[key] = true
	c.mu.Unlock()

	scans, err := c.backend.ListScans(ctx, opts)

	c.mu.Lock()
	delete(c.refreshing, key)
	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.log.WithError(err).Warn("Scan refresh failed, keeping previous snapshot")
		c.emit(Event{Type: EventError, Err: err.Error()})
		return nil, err
	}

	c.scans = scans
	c.lastErr = ""
	transitions := c.detector.Observe(scans)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snapshot)
	c.emit(Event{Type: EventSnapshot, Scans: snapshot})
	for i := range transitions {
		t := transitions[i]
		c.log.WithFields(logrus.Fields{
			"scan_id": t.ScanID,
			"from":    t.From,
			"to":      t.To,
		}).Info("Scan status changed")
		c.emit(Event{Type: EventTransition, Transition: &t})
	}

	return snapshot, nil
}

// persist mirrors the snapshot to durable storage, best effort.
func (c *Cache) persist(scans []models.Scan) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(scans)
	if err != nil {
		return
	}
	if err := c.store.Set(interfaces.KeyScanCache, data); err != nil {
		c.log.WithError(err).Warn("Failed to persist scan cache")
	}
}

// Create submits a new scan and prepends it to the cache immediately so the
// UI reflects it before the next refresh.
func (c *Cache) Create(ctx context.Context, req api.CreateScanRequest) (*models.Scan, error) {
	scan, err := c.backend.CreateScan(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.emit(Event{Type: EventError, Err: err.Error()})
		return nil, err
	}

	c.mu.Lock()
	c.scans = append([]models.Scan{*scan}, c.scans...)
	c.lastErr = ""
	// Seed the baseline so the next refresh reporting the same status stays
	// silent, but a pending -> running change still fires.
	c.detector.Observe(c.scans)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snapshot)
	c.emit(Event{Type: EventSnapshot, Scans: snapshot})
	return scan, nil
}

// Cancel requests cancellation and flips the local status without waiting
// for the next refresh.
func (c *Cache) Cancel(ctx context.Context, id string) (bool, error) {
	ok, err := c.backend.CancelScan(ctx, id)
	if err != nil || !ok {
		if err != nil {
			c.mu.Lock()
			c.lastErr = err.Error()
			c.mu.Unlock()
			c.emit(Event{Type: EventError, Err: err.Error()})
		}
		return false, err
	}

	c.mu.Lock()
	for i := range c.scans {
		if c.scans[i].ID == id {
			c.scans[i].Status = models.StatusCancelled
			break
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snapshot)
	c.emit(Event{Type: EventSnapshot, Scans: snapshot})
	return true, nil
}

// Delete removes the scan on the backend and from the local cache.
func (c *Cache) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.backend.DeleteScan(ctx, id)
	if err != nil || !ok {
		if err != nil {
			c.mu.Lock()
			c.lastErr = err.Error()
			c.mu.Unlock()
			c.emit(Event{Type: EventError, Err: err.Error()})
		}
		return false, err
	}

	c.mu.Lock()
	for i := range c.scans {
		if c.scans[i].ID == id {
			c.scans = append(c.scans[:i], c.scans[i+1:]...)
			break
		}
	}
	c.detector.Forget(id)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(snapshot)
	c.emit(Event{Type: EventSnapshot, Scans: snapshot})
	return true, nil
}

// HasActiveScans reports whether any cached scan is pending or running. This
// is the whole adaptive-polling predicate: poll while true, stop when false.
func (c *Cache) HasActiveScans() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.scans {
		if c.scans[i].Status.IsActive() {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current scan list.
func (c *Cache) Snapshot() []models.Scan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) snapshotLocked() []models.Scan {
	out := make([]models.Scan, len(c.scans))
	copy(out, c.scans)
	return out
}

// LastError returns the message of the most recent failed operation, or ""
// if the last operation succeeded.
func (c *Cache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
