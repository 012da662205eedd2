package liveagent

import "context"

// Plugin extends an Agent. Plugins are initialized in registration order
// when the agent starts and shut down in reverse order when it stops.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. ctx is canceled when the agent stops.
	// An error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin receives from the agent.
type PluginConfig struct {
	PageURL string
	Logger  Logger

	// Trigger requests a reload, coalesced with every other trigger.
	Trigger func(reason string)
}
