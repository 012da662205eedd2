// Package memory provides the in-process session store, scoped to the
// lifetime of one agent the way sessionStorage is scoped to a tab.
package memory

import (
	"context"
	"sync"

	"github.com/bft-labs/liveagent/internal/ports"
)

// SessionStore implements ports.SessionStore with a map.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{entries: make(map[string]string)}
}

// Get returns the value for key.
func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// Len returns the number of stored keys.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op.
func (s *SessionStore) Close() error { return nil }

var _ ports.SessionStore = (*SessionStore)(nil)
