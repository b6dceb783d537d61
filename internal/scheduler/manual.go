package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit Advance calls instead of the wall
// clock. Callbacks fire synchronously inside Advance, in deadline order, which
// keeps tests deterministic.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	entries map[int]*manualEntry
}

type manualEntry struct {
	at       time.Time
	interval time.Duration // 0 for one-shot
	fn       func()
}

// NewManual returns a Manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, entries: make(map[int]*manualEntry)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.schedule(d, d, fn)
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.schedule(d, 0, fn)
}

func (m *Manual) schedule(d, interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.entries[id] = &manualEntry{at: m.now.Add(d), interval: interval, fn: fn}
	return &manualHandle{m: m, id: id}
}

// Advance moves the clock forward by d, firing every due callback in deadline
// order. A repeating callback can fire multiple times in one Advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		fn := m.popDue(target)
		if fn == nil {
			break
		}
		fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// popDue advances the clock to the earliest due entry at or before target,
// removes or reschedules it, and returns its callback.
func (m *Manual) popDue(target time.Time) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []int
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bestID := -1
	for _, id := range ids {
		e := m.entries[id]
		if e.at.After(target) {
			continue
		}
		if bestID == -1 || e.at.Before(m.entries[bestID].at) {
			bestID = id
		}
	}
	if bestID == -1 {
		return nil
	}

	e := m.entries[bestID]
	if e.at.After(m.now) {
		m.now = e.at
	}
	if e.interval > 0 {
		e.at = e.at.Add(e.interval)
	} else {
		delete(m.entries, bestID)
	}
	return e.fn
}

// Pending returns the number of scheduled entries that have not been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type manualHandle struct {
	m  *Manual
	id int
}

func (h *manualHandle) Stop() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	delete(h.m.entries, h.id)
}
