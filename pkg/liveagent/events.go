package liveagent

import "time"

// State is the lifecycle state of an Agent.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ConnectEvent reports an open live channel.
type ConnectEvent struct {
	SessionID string
	// Reconnect is false only for the first channel the agent ever opened.
	Reconnect bool
}

// DisconnectEvent reports the end of a channel session, including dials
// that never connected.
type DisconnectEvent struct {
	SessionID string
	Err       error
}

// ProbeRejectedEvent reports a probe that failed or lacked the reload marker.
type ProbeRejectedEvent struct {
	Attempt int
	Err     error
}

// ReloadEvent reports a committed reload.
type ReloadEvent struct {
	Mode     Mode
	Attempts int
	Duration time.Duration
}

// EventHandler receives agent events. Methods are called synchronously from
// agent goroutines and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnConnect(event ConnectEvent)
	OnDisconnect(event DisconnectEvent)
	OnProbeRejected(event ProbeRejectedEvent)
	OnReload(event ReloadEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnConnect(ConnectEvent)             {}
func (BaseEventHandler) OnDisconnect(DisconnectEvent)       {}
func (BaseEventHandler) OnProbeRejected(ProbeRejectedEvent) {}
func (BaseEventHandler) OnReload(ReloadEvent)               {}
