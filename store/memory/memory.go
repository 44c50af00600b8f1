package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/langfix/store"
)

// MemoryTrailStore keeps trails in a process-local map.
type MemoryTrailStore struct {
	trails map[string]*store.Trail
	mu     sync.RWMutex
}

var _ store.TrailStore = (*MemoryTrailStore)(nil)

// NewMemoryTrailStore creates an empty store.
func NewMemoryTrailStore() *MemoryTrailStore {
	return &MemoryTrailStore{
		trails: make(map[string]*store.Trail),
	}
}

// Save stores a copy of trail.
func (m *MemoryTrailStore) Save(_ context.Context, trail *store.Trail) error {
	if trail == nil || trail.ID == "" {
		return fmt.Errorf("trail must have an ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trails[trail.ID] = copyTrail(trail)
	return nil
}

// Load returns a copy of the trail with the given ID.
func (m *MemoryTrailStore) Load(_ context.Context, trailID string) (*store.Trail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trail, ok := m.trails[trailID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
	}
	return copyTrail(trail), nil
}

// List returns copies of the session's trails, oldest first.
func (m *MemoryTrailStore) List(_ context.Context, sessionID string) ([]*store.Trail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trails := make([]*store.Trail, 0)
	for _, t := range m.trails {
		if t.SessionID == sessionID {
			trails = append(trails, copyTrail(t))
		}
	}
	store.SortByTimestamp(trails)
	return trails, nil
}

// Delete removes a trail.
func (m *MemoryTrailStore) Delete(_ context.Context, trailID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trails[trailID]; !ok {
		return fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
	}
	delete(m.trails, trailID)
	return nil
}

// Clear removes every trail of a session.
func (m *MemoryTrailStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.trails {
		if t.SessionID == sessionID {
			delete(m.trails, id)
		}
	}
	return nil
}

// copyTrail isolates stored trails from caller mutation. Record and Metadata
// values are shared; they are treated as immutable.
func copyTrail(t *store.Trail) *store.Trail {
	c := *t
	c.Attempts = append([]store.AttemptRecord(nil), t.Attempts...)
	if t.Record != nil {
		c.Record = make(map[string]any, len(t.Record))
		for k, v := range t.Record {
			c.Record[k] = v
		}
	}
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
