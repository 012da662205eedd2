package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	PageURL            string `toml:"url"`
	Mode               string `toml:"mode"`
	ChannelPath        string `toml:"channel_path"`
	ReconnectDelay     string `toml:"reconnect_delay"`
	RetryDelay         string `toml:"retry_delay"`
	HTTPTimeout        string `toml:"http_timeout"`
	PreloadConcurrency int    `toml:"preload_concurrency"`
	Storage            string `toml:"storage"`
	StateDir           string `toml:"state_dir"`
	WatchDir           string `toml:"watch_dir"`
	WatchDebounce      string `toml:"watch_debounce"`
	Output             string `toml:"output"`
	LogLevel           string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.liveagent/config.toml, or an empty string
// when the home directory is unknown.
func DefaultConfigPath() string {
	if dir := DefaultStateDir(); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("url", fc.PageURL, &cfg.PageURL)
	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setString("channel-path", fc.ChannelPath, &cfg.ChannelPath)
	s.setString("storage", fc.Storage, &cfg.Storage)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("watch", fc.WatchDir, &cfg.WatchDir)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"reconnect-delay", fc.ReconnectDelay, &cfg.ReconnectDelay},
		{"retry-delay", fc.RetryDelay, &cfg.RetryDelay},
		{"timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("preload-concurrency", fc.PreloadConcurrency, &cfg.PreloadConcurrency)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
