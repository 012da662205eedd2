package liveagent

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/liveagent/internal/domain"
)

// Mode selects how a validated reload is applied.
type Mode string

const (
	// ModeSoft replaces the page head and body in place and restores scroll.
	ModeSoft Mode = "soft"
	// ModeHard reloads the whole page.
	ModeHard Mode = "hard"
)

// Storage backends for scroll state.
const (
	StorageMemory = string(domain.StorageMemory)
	StorageFile   = string(domain.StorageFile)
	StorageBadger = string(domain.StorageBadger)
)

// Default configuration values.
const (
	DefaultReconnectDelay     = 3 * time.Second
	DefaultRetryDelay         = 500 * time.Millisecond
	DefaultHTTPTimeout        = 10 * time.Second
	DefaultPreloadConcurrency = 8
)

// Config configures an Agent.
type Config struct {
	// PageURL is the page to keep live. Required, absolute http(s).
	PageURL string

	// Mode defaults to ModeSoft.
	Mode Mode

	// ChannelPath is the live channel path on the page's host.
	// Default: /live-server-ws
	ChannelPath string

	// ReconnectDelay is the pause after the channel closes.
	// Default: 3 seconds
	ReconnectDelay time.Duration

	// RetryDelay is the pause after a rejected probe.
	// Default: 500 milliseconds
	RetryDelay time.Duration

	// HTTPTimeout bounds each page, probe and preload request and the
	// channel handshake.
	// Default: 10 seconds
	HTTPTimeout time.Duration

	// PreloadConcurrency bounds cache-busting requests in flight.
	// Default: 8
	PreloadConcurrency int

	// Storage is one of StorageMemory, StorageFile or StorageBadger.
	// Default: StorageMemory
	Storage string

	// StateDir holds session.json or session.badger for the durable
	// backends. An empty StateDir with StorageBadger opens an in-memory
	// database.
	StateDir string
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = ModeSoft
	}
	if c.ChannelPath == "" {
		c.ChannelPath = domain.ChannelPath
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.PreloadConcurrency == 0 {
		c.PreloadConcurrency = DefaultPreloadConcurrency
	}
	if c.Storage == "" {
		c.Storage = StorageMemory
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig or
// ErrUnknownStorage.
func (c Config) Validate() error {
	u, err := url.Parse(c.PageURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: page url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.PageURL)
	}
	if _, err := domain.ParseReloadMode(string(c.Mode)); err != nil {
		return err
	}
	kind, err := domain.ParseStorageKind(c.Storage)
	if err != nil {
		return err
	}
	if kind == domain.StorageFile && c.StateDir == "" {
		return fmt.Errorf("%w: file storage needs a state dir", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.ChannelPath, "/") {
		return fmt.Errorf("%w: channel path must start with /", ErrInvalidConfig)
	}
	if c.ReconnectDelay < 0 || c.RetryDelay < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: delays and timeout must be positive", ErrInvalidConfig)
	}
	if c.PreloadConcurrency < 0 {
		return fmt.Errorf("%w: preload concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) reloadMode() domain.ReloadMode {
	m, _ := domain.ParseReloadMode(string(c.Mode))
	return m
}
