package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/notify"
	"github.com/cynerra/scanwatch/internal/scheduler"
	"github.com/cynerra/scanwatch/internal/storage/memory"
)

const eventually = 2 * time.Second

func TestMonitorLifecycleNotifications(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{}
	backend.setList([]models.Scan{scan("a", models.StatusPending)}, nil)

	cache := NewCache(backend, nil)
	store := notify.NewStore(memory.NewStore(), 0)
	mon := NewMonitor(cache, store, sched, 5*time.Second)

	require.NoError(t, mon.Start(context.Background()))
	defer mon.Stop()

	// Initial refresh saw an active scan, so the list poll is armed.
	assert.Equal(t, 1, sched.Pending())

	backend.setList([]models.Scan{scan("a", models.StatusRunning)}, nil)
	sched.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		return len(store.List()) == 1
	}, eventually, 10*time.Millisecond)
	assert.Equal(t, models.KindInfo, store.List()[0].Kind)
	assert.Contains(t, store.List()[0].Title, "running")

	completed := scan("a", models.StatusCompleted)
	findings := 3
	completed.FindingsCount = &findings
	backend.setList([]models.Scan{completed}, nil)
	sched.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		return len(store.List()) == 2
	}, eventually, 10*time.Millisecond)

	// Newest first: the completion notification is on top.
	top := store.List()[0]
	assert.Equal(t, models.KindSuccess, top.Kind)
	assert.Contains(t, top.Title, "Scan completed")
	assert.Contains(t, top.Message, "3 findings")
	assert.Equal(t, "a", top.ScanID)
	assert.Equal(t, 2, store.UnreadCount())
}

func TestMonitorStopsPollingWhenNoActiveScans(t *testing.T) {
	sched := scheduler.NewManual(time.Now())

	var listCalls int64
	backend := &fakeBackend{}
	backend.listFn = func(api.ListOptions) ([]models.Scan, error) {
		atomic.AddInt64(&listCalls, 1)
		return []models.Scan{scan("a", models.StatusRunning)}, nil
	}

	cache := NewCache(backend, nil)
	mon := NewMonitor(cache, notify.NewStore(nil, 0), sched, 5*time.Second)

	require.NoError(t, mon.Start(context.Background()))
	defer mon.Stop()
	require.Equal(t, 1, sched.Pending())

	backend.mu.Lock()
	backend.listFn = func(api.ListOptions) ([]models.Scan, error) {
		atomic.AddInt64(&listCalls, 1)
		return []models.Scan{scan("a", models.StatusCompleted)}, nil
	}
	backend.mu.Unlock()
	sched.Advance(5 * time.Second)

	// The tick that saw only terminal scans tore the timer down.
	assert.Equal(t, 0, sched.Pending())

	before := atomic.LoadInt64(&listCalls)
	sched.Advance(30 * time.Second)
	assert.Equal(t, before, atomic.LoadInt64(&listCalls), "no polling while idle")
}

func TestMonitorResumesPollingOnNewScan(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{}
	backend.setList([]models.Scan{scan("a", models.StatusCompleted)}, nil)
	backend.createFn = func(api.CreateScanRequest) (*models.Scan, error) {
		s := scan("b", models.StatusPending)
		return &s, nil
	}

	cache := NewCache(backend, nil)
	mon := NewMonitor(cache, notify.NewStore(nil, 0), sched, 5*time.Second)

	require.NoError(t, mon.Start(context.Background()))
	defer mon.Stop()
	require.Equal(t, 0, sched.Pending(), "terminal-only list arms no timer")

	_, err := cache.Create(context.Background(), api.CreateScanRequest{Target: "10.0.0.1"})
	require.NoError(t, err)

	// The snapshot event from Create restarts adaptive polling.
	require.Eventually(t, func() bool {
		return sched.Pending() == 1
	}, eventually, 10*time.Millisecond)
}

func TestMonitorInitialRefreshFailureIsNotFatal(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{}

	cache := NewCache(backend, nil)
	mon := NewMonitor(cache, notify.NewStore(nil, 0), sched, 5*time.Second)

	require.NoError(t, mon.Start(context.Background()))
	defer mon.Stop()
	assert.Equal(t, 0, sched.Pending())
}

func TestMonitorStopIdempotent(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{}
	backend.setList([]models.Scan{scan("a", models.StatusRunning)}, nil)

	cache := NewCache(backend, nil)
	mon := NewMonitor(cache, notify.NewStore(nil, 0), sched, 5*time.Second)

	require.NoError(t, mon.Start(context.Background()))
	mon.Stop()
	mon.Stop()
	assert.Equal(t, 0, sched.Pending())
}
