package domain

import (
	"fmt"
	"strings"
)

// CycleState is the reload cycle state. It replaces the reloading/scheduled
// flag pair: RunningWithPending is only reachable from Running.
type CycleState int

const (
	CycleIdle CycleState = iota
	CycleRunning
	CycleRunningWithPending
)

// String returns a human-readable representation of the state.
func (s CycleState) String() string {
	switch s {
	case CycleIdle:
		return "Idle"
	case CycleRunning:
		return "Running"
	case CycleRunningWithPending:
		return "RunningWithPending"
	default:
		return "Unknown"
	}
}

// ReloadMode selects how a validated probe is committed.
type ReloadMode int

const (
	// ModeSoft swaps the live head and body for the probe's.
	ModeSoft ReloadMode = iota
	// ModeHard performs a full navigation of the page.
	ModeHard
)

// String returns the config spelling of the mode.
func (m ReloadMode) String() string {
	switch m {
	case ModeSoft:
		return "soft"
	case ModeHard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseReloadMode parses "soft" or "hard" (case-insensitive).
func ParseReloadMode(s string) (ReloadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "soft":
		return ModeSoft, nil
	case "hard":
		return ModeHard, nil
	default:
		return ModeSoft, fmt.Errorf("%w: unknown reload mode %q", ErrInvalidConfig, s)
	}
}
