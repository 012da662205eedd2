package liveagent

import (
	"github.com/bft-labs/liveagent/internal/ports"
	"github.com/bft-labs/liveagent/pkg/log"
)

// Types accepted by the options, re-exported from internal packages.
type (
	// Logger is the structured logger from pkg/log.
	Logger = log.Logger

	// HTTPClient sends page, probe and preload requests.
	// *http.Client satisfies this interface.
	HTTPClient = ports.HTTPClient

	// Dialer opens live channel connections.
	Dialer = ports.ChannelDialer

	// Channel is one open live channel.
	Channel = ports.Channel

	// SessionStore holds scroll state between snapshot and restore.
	SessionStore = ports.SessionStore

	// Page is the live document kept in sync.
	Page = ports.Page
)

// Option configures optional behavior of an Agent.
type Option func(*options)

type options struct {
	httpClient   HTTPClient
	logger       Logger
	dialer       Dialer
	store        SessionStore
	page         Page
	eventHandler EventHandler
	plugins      []Plugin
}

// WithHTTPClient sets the client for page, probe and preload requests.
// If not provided, an *http.Client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDialer replaces the websocket dialer for the live channel.
func WithDialer(dialer Dialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}

// WithSessionStore sets the store for scroll state. It overrides
// Config.Storage, and the agent does not close it.
func WithSessionStore(store SessionStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithPage sets the live page. If not provided, the page is loaded from
// Config.PageURL on Start.
func WithPage(page Page) Option {
	return func(o *options) {
		o.page = page
	}
}

// WithEventHandler sets a handler for agent events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the agent starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
