package monitor

import "github.com/cynerra/scanwatch/internal/models"

// Transition is one observed status change for a scan between two
// consecutive snapshots.
type Transition struct {
	ScanID string
	From   models.ScanStatus
	To     models.ScanStatus
	Target string
}

// TransitionDetector diffs successive scan-list snapshots and reports each
// real status change exactly once. A scan seen for the first time records a
// baseline without reporting anything, so a terminal scan that predates the
// detector (e.g. after a reload) stays silent.
type TransitionDetector struct {
	seen map[string]models.ScanStatus
}

// NewTransitionDetector returns a detector with no baseline.
func NewTransitionDetector() *TransitionDetector {
	return &TransitionDetector{seen: make(map[string]models.ScanStatus)}
}

// Observe processes the next snapshot and returns the transitions it
// contains. Snapshots must arrive in the order the cache produced them.
func (d *TransitionDetector) Observe(scans []models.Scan) []Transition {
	var transitions []Transition

	present := make(map[string]bool, len(scans))
	for _, scan := range scans {
		present[scan.ID] = true

		last, ok := d.seen[scan.ID]
		if !ok {
			d.seen[scan.ID] = scan.Status
			continue
		}
		if last == scan.Status {
			continue
		}

		transitions = append(transitions, Transition{
			ScanID: scan.ID,
			From:   last,
			To:     scan.Status,
			Target: scan.Target,
		})
		d.seen[scan.ID] = scan.Status
	}

	// Deleted scans drop out of the baseline silently.
	for id := range d.seen {
		if !present[id] {
			delete(d.seen, id)
		}
	}

	return transitions
}

// Forget drops a single scan from the baseline, used when a scan is deleted
// locally between snapshots.
func (d *TransitionDetector) Forget(id string) {
	delete(d.seen, id)
}
