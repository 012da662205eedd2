package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bft-labs/liveagent/pkg/liveagent"
)

// snapshotWriter mirrors the live document into a file after every reload.
type snapshotWriter struct {
	liveagent.BaseEventHandler

	path   string
	agent  *liveagent.Agent
	logger zerolog.Logger
}

func (s *snapshotWriter) OnReload(e liveagent.ReloadEvent) {
	if err := s.write(); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("write snapshot")
		return
	}
	s.logger.Debug().Str("path", s.path).Msg("snapshot written")
}

func (s *snapshotWriter) OnDisconnect(e liveagent.DisconnectEvent) {
	if e.Err != nil {
		s.logger.Debug().Err(e.Err).Str("session", e.SessionID).Msg("channel closed")
	}
}

// write renders to a temp file in the same directory and renames it into place.
func (s *snapshotWriter) write() error {
	if s.path == "" || s.agent == nil {
		return nil
	}
	page := s.agent.Page()
	if page == nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".liveagent-*.html")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := page.Render(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("render: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
