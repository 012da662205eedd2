// Package fs provides a session store persisted as a JSON file.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/liveagent/internal/ports"
)

const sessionFileName = "session.json"

// SessionFileStore implements ports.SessionStore on a JSON object file.
// Entries are loaded once on open and the whole file is rewritten on Set.
type SessionFileStore struct {
	dir string

	mu      sync.Mutex
	entries map[string]string
}

// OpenSessionFileStore loads the store from dir.
// A missing file yields an empty store.
func OpenSessionFileStore(dir string) (*SessionFileStore, error) {
	s := &SessionFileStore{
		dir:     dir,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
	return s, nil
}

// Get returns the value for key.
func (s *SessionFileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores value under key and persists the store.
func (s *SessionFileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	if had && prev == value {
		return nil
	}
	s.entries[key] = value
	if err := s.save(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// Close is a no-op; every Set is already durable.
func (s *SessionFileStore) Close() error { return nil }

// Path returns the full path to the session file.
func (s *SessionFileStore) Path() string {
	return filepath.Join(s.dir, sessionFileName)
}

// save writes the entries atomically (temp file, then rename).
func (s *SessionFileStore) save() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, path)
}

var _ ports.SessionStore = (*SessionFileStore)(nil)
