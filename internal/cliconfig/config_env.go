package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "LIVEAGENT_"

// ApplyEnvConfig applies LIVEAGENT_* environment variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("url", env("URL"), &cfg.PageURL)
	s.setString("mode", env("MODE"), &cfg.Mode)
	s.setString("channel-path", env("CHANNEL_PATH"), &cfg.ChannelPath)
	s.setString("storage", env("STORAGE"), &cfg.Storage)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("watch", env("WATCH_DIR"), &cfg.WatchDir)
	s.setString("output", env("OUTPUT"), &cfg.Output)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("reconnect-delay", env("RECONNECT_DELAY"), &cfg.ReconnectDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay", env("RETRY_DELAY"), &cfg.RetryDelay); err != nil {
		return err
	}
	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", env("WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	return s.setIntFromString("preload-concurrency", env("PRELOAD_CONCURRENCY"), &cfg.PreloadConcurrency)
}
