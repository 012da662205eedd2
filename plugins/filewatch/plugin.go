// Package filewatch triggers liveagent reloads when files under a directory
// change. It is the local-only alternative to a dev server announcing
// changes over the live channel.
package filewatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/liveagent/pkg/liveagent"
	"github.com/bft-labs/liveagent/pkg/log"
)

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Plugin watches a directory tree and calls the agent's Trigger once per
// burst of changes.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	dir      string
	debounce time.Duration
	ignore   map[string]struct{}

	// Runtime state
	logger   log.Logger
	trigger  func(reason string)
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	timer    *time.Timer
	stopped  bool
	lastPath string
}

// Config holds configuration options for the file watch plugin.
type Config struct {
	// Dir is the root of the watched tree. Hidden files and directories
	// are skipped.
	Dir string

	// Ignore lists files whose changes never trigger a reload, such as
	// files the agent itself writes inside Dir.
	Ignore []string

	// Debounce is how long the tree must stay quiet before a reload is
	// triggered.
	// Default: 100 milliseconds
	Debounce time.Duration
}

// DefaultConfig returns a Config watching the working directory.
func DefaultConfig() Config {
	return Config{
		Dir:      ".",
		Debounce: 100 * time.Millisecond,
	}
}

// New creates a file watch plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	ignore := make(map[string]struct{}, len(cfg.Ignore))
	for _, path := range cfg.Ignore {
		if path != "" {
			ignore[absPath(path)] = struct{}{}
		}
	}
	return &Plugin{
		dir:      cfg.Dir,
		debounce: cfg.Debounce,
		ignore:   ignore,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "filewatch"
}

// Initialize registers the watched tree and starts the event loop.
func (p *Plugin) Initialize(ctx context.Context, cfg liveagent.PluginConfig) error {
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.trigger = cfg.Trigger

	if p.dir == "" {
		p.logger.Warn("file watch disabled: no directory configured")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := p.addTree(watcher, p.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", p.dir, err)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("file watch started", log.String("dir", p.dir))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)
	return nil
}

// Shutdown stops the event loop and drops any pending trigger.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&changeOps == 0 || p.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := p.addTree(p.watcher, event.Name); err != nil {
						p.logger.Warn("watch new directory failed",
							log.String("dir", event.Name), log.Err(err))
					}
				}
			}
			p.schedule(event.Name)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("file watch error", log.Err(err))
		}
	}
}

// schedule restarts the debounce timer; the last path seen names the burst.
func (p *Plugin) schedule(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastPath = path
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.fire)
}

func (p *Plugin) fire() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	path := p.lastPath
	p.mu.Unlock()

	if rel, err := filepath.Rel(p.dir, path); err == nil {
		path = rel
	}
	p.logger.Debug("file change", log.String("path", path))
	if p.trigger != nil {
		p.trigger("file change: " + path)
	}
}

// ignored reports whether a change to path must not trigger a reload.
func (p *Plugin) ignored(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	_, ok := p.ignore[absPath(path)]
	return ok
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// addTree watches root and every non-hidden directory below it.
func (p *Plugin) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
