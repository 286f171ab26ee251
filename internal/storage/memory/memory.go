// Package memory stores backup objects in-memory for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Store holds saved objects for inspection.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an in-memory store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Save records the object and returns a memory:// URI.
func (s *Store) Save(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", name), nil
}

// Object returns the stored bytes for name.
func (s *Store) Object(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many objects have been stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
