package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cynerra/scanwatch/internal/models"
)

func TestDetectorFirstSightIsSilent(t *testing.T) {
	d := NewTransitionDetector()

	transitions := d.Observe([]models.Scan{
		scan("a", models.StatusRunning),
		scan("b", models.StatusCompleted),
	})

	assert.Empty(t, transitions, "first snapshot only establishes the baseline")
}

func TestDetectorReportsEachChangeOnce(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusPending)})

	transitions := d.Observe([]models.Scan{scan("a", models.StatusRunning)})
	require.Len(t, transitions, 1)
	assert.Equal(t, "a", transitions[0].ScanID)
	assert.Equal(t, models.StatusPending, transitions[0].From)
	assert.Equal(t, models.StatusRunning, transitions[0].To)
	assert.Equal(t, "192.168.1.0/24", transitions[0].Target)

	// Identical snapshot again: nothing new to report.
	transitions = d.Observe([]models.Scan{scan("a", models.StatusRunning)})
	assert.Empty(t, transitions)
}

func TestDetectorFullLifecycle(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusPending)})
	first := d.Observe([]models.Scan{scan("a", models.StatusRunning)})
	second := d.Observe([]models.Scan{scan("a", models.StatusCompleted)})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, models.StatusRunning, second[0].From)
	assert.Equal(t, models.StatusCompleted, second[0].To)
}

func TestDetectorSkippedStateCollapsesToOneTransition(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusPending)})

	// The poll missed the running phase entirely.
	transitions := d.Observe([]models.Scan{scan("a", models.StatusCompleted)})
	require.Len(t, transitions, 1)
	assert.Equal(t, models.StatusPending, transitions[0].From)
	assert.Equal(t, models.StatusCompleted, transitions[0].To)
}

func TestDetectorPrunesDeletedScans(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusRunning), scan("b", models.StatusPending)})

	// b vanishes, then reappears completed. The reappearance is a fresh first
	// sight, not a transition.
	transitions := d.Observe([]models.Scan{scan("a", models.StatusRunning)})
	assert.Empty(t, transitions)

	transitions = d.Observe([]models.Scan{scan("a", models.StatusRunning), scan("b", models.StatusCompleted)})
	assert.Empty(t, transitions)
}

func TestDetectorForget(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusRunning)})
	d.Forget("a")

	transitions := d.Observe([]models.Scan{scan("a", models.StatusCompleted)})
	assert.Empty(t, transitions, "forgotten scan re-baselines silently")
}

func TestDetectorIndependentScans(t *testing.T) {
	d := NewTransitionDetector()

	d.Observe([]models.Scan{scan("a", models.StatusPending), scan("b", models.StatusPending)})

	transitions := d.Observe([]models.Scan{
		scan("a", models.StatusRunning),
		scan("b", models.StatusFailed),
	})
	require.Len(t, transitions, 2)
}
