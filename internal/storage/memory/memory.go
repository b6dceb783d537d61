// Package memory implements the key-value store in process memory, for tests
// and ephemeral runs where nothing should outlive the process.
package memory

import (
	"sync"

	"github.com/cynerra/scanwatch/internal/storage/interfaces"
)

// Store implements interfaces.KeyValueStore on a map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

var _ interfaces.KeyValueStore = (*Store)(nil)

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}
