// Package badger provides a session store on a badger/v4 key-value database.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/bft-labs/liveagent/internal/ports"
)

// keyPrefix namespaces session entries inside the database.
const keyPrefix = "session/"

// SessionStore implements ports.SessionStore with badger.
type SessionStore struct {
	db *badgerdb.DB
}

// Open opens (or creates) the database in dir. An empty dir opens an
// in-memory database that lives as long as the store.
func Open(dir string) (*SessionStore, error) {
	opts := badgerdb.DefaultOptions(dir)
	if dir == "" {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Get returns the value for key.
func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		b, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value, found = string(b), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return value, found, nil
}

// Set stores value under key.
func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

var _ ports.SessionStore = (*SessionStore)(nil)
