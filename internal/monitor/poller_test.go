package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/scheduler"
)

func progressSequence(statuses ...models.ScanStatus) func(string) (*models.ScanProgress, error) {
	i := 0
	return func(id string) (*models.ScanProgress, error) {
		status := statuses[i]
		if i < len(statuses)-1 {
			i++
		}
		return &models.ScanProgress{ScanID: id, Status: status, Progress: 50}, nil
	}
}

func TestPollerDeliversTicks(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{progressFn: progressSequence(models.StatusRunning)}

	var got []models.ScanProgress
	p := NewDetailPoller(backend, sched, 2*time.Second, func(pr models.ScanProgress) {
		got = append(got, pr)
	})

	p.Start("a")
	assert.True(t, p.Polling("a"))

	sched.Advance(6 * time.Second)
	require.Len(t, got, 3, "one tick per interval elapsed")
	assert.Equal(t, "a", got[0].ScanID)
	assert.True(t, p.Polling("a"))

	p.StopAll()
	assert.False(t, p.Polling("a"))
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{
		progressFn: progressSequence(models.StatusRunning, models.StatusCompleted),
	}

	var got []models.ScanProgress
	p := NewDetailPoller(backend, sched, 2*time.Second, func(pr models.ScanProgress) {
		got = append(got, pr)
	})

	p.Start("a")
	sched.Advance(10 * time.Second)

	// Tick 1 reports running, tick 2 reports completed and stops the poll.
	// The terminal tick is still delivered.
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusCompleted, got[1].Status)
	assert.False(t, p.Polling("a"))
	assert.Equal(t, 0, sched.Pending())
}

func TestPollerDoubleStartIsNoOp(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	calls := 0
	backend := &fakeBackend{}
	backend.progressFn = func(id string) (*models.ScanProgress, error) {
		calls++
		return &models.ScanProgress{ScanID: id, Status: models.StatusRunning}, nil
	}

	p := NewDetailPoller(backend, sched, 2*time.Second, nil)
	p.Start("a")
	p.Start("a")

	sched.Advance(2 * time.Second)
	assert.Equal(t, 1, calls, "one timer per scan regardless of Start calls")
}

func TestPollerSurvivesTransientErrors(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	calls := 0
	backend := &fakeBackend{}
	backend.progressFn = func(id string) (*models.ScanProgress, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		return &models.ScanProgress{ScanID: id, Status: models.StatusRunning}, nil
	}

	var got []models.ScanProgress
	p := NewDetailPoller(backend, sched, 2*time.Second, func(pr models.ScanProgress) {
		got = append(got, pr)
	})

	p.Start("a")
	sched.Advance(4 * time.Second)

	assert.Equal(t, 2, calls)
	require.Len(t, got, 1, "failed tick delivers nothing but polling continues")
	assert.True(t, p.Polling("a"))
}

func TestPollerIndependentScans(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	backend := &fakeBackend{}
	backend.progressFn = func(id string) (*models.ScanProgress, error) {
		status := models.StatusRunning
		if id == "b" {
			status = models.StatusCompleted
		}
		return &models.ScanProgress{ScanID: id, Status: status}, nil
	}

	p := NewDetailPoller(backend, sched, 2*time.Second, nil)
	p.Start("a")
	p.Start("b")

	sched.Advance(2 * time.Second)

	assert.True(t, p.Polling("a"), "b finishing does not stop a")
	assert.False(t, p.Polling("b"))
}

func TestPollerStopIdempotent(t *testing.T) {
	sched := scheduler.NewManual(time.Now())
	p := NewDetailPoller(&fakeBackend{}, sched, 2*time.Second, nil)

	p.Start("a")
	p.Stop("a")
	p.Stop("a")
	p.Stop("never-started")

	assert.Equal(t, 0, sched.Pending())
}
