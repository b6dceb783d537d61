// Package notify maintains the durable, bounded list of user-facing events.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/storage/interfaces"
)

// DefaultMaxEntries caps the notification list; inserting beyond the cap
// evicts the oldest entry.
const DefaultMaxEntries = 50

// Store is the notification list, newest first. Every mutation is written
// through to the key-value store, and startup hydrates from it, treating
// malformed data as absent so corruption never crashes the app.
type Store struct {
	kv  interfaces.KeyValueStore
	log *logrus.Entry
	max int

	mu       sync.Mutex
	items    []models.Notification
	onChange []func()
}

// NewStore creates and hydrates a store. kv may be nil for ephemeral use.
func NewStore(kv interfaces.KeyValueStore, max int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	s := &Store{
		kv:  kv,
		log: logging.NewLogger("notify"),
		max: max,
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if s.kv == nil {
		return
	}

	data, ok, err := s.kv.Get(interfaces.KeyNotifications)
	if err != nil {
		s.log.WithError(err).Warn("Failed to read persisted notifications, starting empty")
		return
	}
	if !ok {
		return
	}

	var items []models.Notification
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.WithError(err).Warn("Ignoring corrupt persisted notifications")
		return
	}

	if len(items) > s.max {
		items = items[:s.max]
	}
	s.items = items
}

// OnChange registers a callback invoked after every mutation. Callbacks run
// outside the store's lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Store) notifyChanged() {
	s.mu.Lock()
	callbacks := make([]func(), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// persistLocked writes the current list through to storage. Callers hold the
// lock.
func (s *Store) persistLocked() {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(s.items)
	if err != nil {
		return
	}
	if err := s.kv.Set(interfaces.KeyNotifications, data); err != nil {
		s.log.WithError(err).Warn("Failed to persist notifications")
	}
}

// Add creates a notification with a fresh id and timestamp, prepends it and
// truncates to the cap. The created notification is returned.
func (s *Store) Add(kind models.NotificationKind, title, message, scanID string) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		ScanID:    scanID,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.items = append([]models.Notification{n}, s.items...)
	if len(s.items) > s.max {
		s.items = s.items[:s.max]
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notifyChanged()
	return n
}

// MarkRead flips one notification to read. Returns false if the id is
// unknown.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.items[i].Read {
				s.items[i].Read = true
				s.persistLocked()
			}
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.notifyChanged()
	}
	return found
}

// MarkAllRead flips every notification to read.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed = true
		}
	}
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notifyChanged()
	}
}

// Remove deletes one notification. Returns false if the id is unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.notifyChanged()
	}
	return found
}

// Clear deletes all notifications.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.persistLocked()
	s.mu.Unlock()

	s.notifyChanged()
}

// List returns a copy of the notifications, newest first.
func (s *Store) List() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.items {
		if !s.items[i].Read {
			count++
		}
	}
	return count
}
