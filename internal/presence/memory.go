package presence

import (
	"context"
	"sync"
	"time"
)

type heartbeat struct {
	at            time.Time
	authenticated bool
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]heartbeat
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]heartbeat)}
}

func (s *MemoryStore) Touch(_ context.Context, visitorID string, authenticated bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[visitorID] = heartbeat{at: at, authenticated: authenticated}
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, hb := range s.entries {
		if hb.at.Before(cutoff) {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *MemoryStore) Counts(_ context.Context) (visitors, authenticated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, hb := range s.entries {
		if hb.authenticated {
			authenticated++
		}
	}
	return len(s.entries), authenticated, nil
}
