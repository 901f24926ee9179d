package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"metasweep/internal/metadata"
)

// SeenState is the last-recorded observation for one file path.
type SeenState struct {
	Path        string
	Fingerprint string
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Store persists seen-state per file path.
type Store interface {
	// Get returns the seen state for a path, or nil when the path has not
	// been observed.
	Get(ctx context.Context, path string) (*SeenState, error)
	// Put records or replaces the seen state for a path.
	Put(ctx context.Context, state SeenState) error
	// Close releases any resources held by the store.
	Close() error
}

// Tracker decides whether a file's current metadata has already been seen.
// It guards its store with a mutex so callers may observe from multiple
// goroutines without breaking the at-most-once-per-fingerprint guarantee.
type Tracker struct {
	mu    sync.Mutex
	store Store
}

// New constructs a tracker over the given store.
func New(store Store) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("tracker store required")
	}
	return &Tracker{store: store}, nil
}

// Observe reports whether the (path, record) combination is new and records it
// when it is. A previously seen path whose metadata changed, including a
// transition to no metadata at all, counts as new.
func (t *Tracker) Observe(ctx context.Context, path string, record metadata.Record) (bool, error) {
	fingerprint := Fingerprint(record)

	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.store.Get(ctx, path)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if state != nil && state.Fingerprint == fingerprint {
		state.LastSeen = now
		if err := t.store.Put(ctx, *state); err != nil {
			return false, err
		}
		return false, nil
	}

	next := SeenState{
		Path:        path,
		Fingerprint: fingerprint,
		FirstSeen:   now,
		LastSeen:    now,
	}
	if state != nil {
		next.FirstSeen = state.FirstSeen
	}
	if err := t.store.Put(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}
