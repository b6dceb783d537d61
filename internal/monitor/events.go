package monitor

import "github.com/cynerra/scanwatch/internal/models"

// EventType discriminates cache events.
type EventType string

const (
	// EventSnapshot fires after any change to the cached scan list.
	EventSnapshot EventType = "snapshot"
	// EventTransition fires once per observed status change.
	EventTransition EventType = "transition"
	// EventError fires when a backend operation fails; the cache keeps its
	// previous contents.
	EventError EventType = "error"
)

// Event is one observable cache state change. Scans is set for snapshot
// events, Transition for transition events, Err for error events.
type Event struct {
	Type       EventType
	Scans      []models.Scan
	Transition *Transition
	Err        string
}

// subscriber is a single event channel. Delivery never blocks the cache: when
// a subscriber falls behind, the oldest buffered event is dropped so the
// newest wins.
type subscriber struct {
	ch     chan Event
	closed chan struct{}
}

func (s *subscriber) send(ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		case <-s.closed:
			return
		default:
		}

		select {
		case <-s.ch:
		default:
		}
	}
}
