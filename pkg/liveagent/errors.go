package liveagent

import "github.com/bft-labs/liveagent/internal/domain"

// Errors returned by the public API, checked with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrUnknownStorage  = domain.ErrUnknownStorage
)
