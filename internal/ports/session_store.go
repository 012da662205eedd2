package ports

import "context"

// SessionStore is tab-scoped key/value storage. Values are plain strings.
type SessionStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases the store.
	Close() error
}
