package tracker

import (
	"context"
	"sync"
)

// MemoryStore keeps seen-state in process memory. State is rebuilt from
// nothing at every process start.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]SeenState
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]SeenState)}
}

// Get returns the seen state for a path, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, path string) (*SeenState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[path]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Put records or replaces the seen state for a path.
func (s *MemoryStore) Put(_ context.Context, state SeenState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Path] = state
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
