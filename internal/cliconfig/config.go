package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/liveagent/internal/domain"
)

// Config holds CLI configuration for liveagent.
type Config struct {
	PageURL     string
	Mode        string
	ChannelPath string

	ReconnectDelay time.Duration
	RetryDelay     time.Duration
	HTTPTimeout    time.Duration

	PreloadConcurrency int

	Storage  string
	StateDir string

	WatchDir      string
	WatchDebounce time.Duration

	Output   string
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Mode:               domain.ModeSoft.String(),
		ChannelPath:        domain.ChannelPath,
		ReconnectDelay:     3 * time.Second,
		RetryDelay:         500 * time.Millisecond,
		HTTPTimeout:        10 * time.Second,
		PreloadConcurrency: 8,
		Storage:            string(domain.StorageMemory),
		StateDir:           DefaultStateDir(),
		WatchDebounce:      100 * time.Millisecond,
		LogLevel:           "info",
	}
}

// DefaultStateDir returns ~/.liveagent, or an empty string when the home
// directory is unknown.
func DefaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".liveagent")
	}
	return ""
}

// Validate checks the configuration for errors and normalizes enum values.
// Every error wraps domain.ErrInvalidConfig or domain.ErrUnknownStorage.
func (c *Config) Validate() error {
	if c.PageURL == "" {
		return invalid("url is required")
	}
	u, err := url.Parse(c.PageURL)
	if err != nil {
		return invalid("url: %v", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("url must be an absolute http(s) URL, got %q", c.PageURL)
	}

	mode, err := domain.ParseReloadMode(c.Mode)
	if err != nil {
		return err
	}
	c.Mode = mode.String()

	storage, err := domain.ParseStorageKind(c.Storage)
	if err != nil {
		return err
	}
	c.Storage = string(storage)
	if storage != domain.StorageMemory && c.StateDir == "" {
		return invalid("state-dir is required for %s storage", storage)
	}

	if !strings.HasPrefix(c.ChannelPath, "/") {
		return invalid("channel-path must start with /, got %q", c.ChannelPath)
	}

	if c.ReconnectDelay <= 0 {
		return invalid("reconnect delay must be positive")
	}
	if c.RetryDelay <= 0 {
		return invalid("retry delay must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return invalid("http timeout must be positive")
	}
	if c.PreloadConcurrency <= 0 {
		return invalid("preload concurrency must be positive")
	}
	if c.WatchDir != "" && c.WatchDebounce <= 0 {
		return invalid("watch debounce must be positive")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if positive.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
