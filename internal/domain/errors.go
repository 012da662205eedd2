package domain

import "errors"

// Domain errors represent error conditions in the liveagent domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("liveagent: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("liveagent: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("liveagent: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("liveagent: invalid configuration")

	// ErrMissingMarker is returned when a probe document lacks the live-server reload marker.
	ErrMissingMarker = errors.New("liveagent: probe missing reload marker")

	// ErrNoHead is returned when a document has no head or body element to swap.
	ErrNoHead = errors.New("liveagent: document has no head or body")

	// ErrUnknownStorage is returned for a storage backend name that is not supported.
	ErrUnknownStorage = errors.New("liveagent: unknown storage backend")
)
