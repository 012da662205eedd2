package liveagent

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	badgerAdapter "github.com/bft-labs/liveagent/internal/adapters/badger"
	"github.com/bft-labs/liveagent/internal/adapters/fs"
	"github.com/bft-labs/liveagent/internal/adapters/htmlpage"
	httpAdapter "github.com/bft-labs/liveagent/internal/adapters/http"
	"github.com/bft-labs/liveagent/internal/adapters/memory"
	"github.com/bft-labs/liveagent/internal/adapters/ws"
	"github.com/bft-labs/liveagent/internal/app"
	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
	"github.com/bft-labs/liveagent/internal/scroll"
	"github.com/bft-labs/liveagent/pkg/log"
)

// Agent keeps a page in sync with a live-reload server.
// Use New to create an instance, then Start to connect.
type Agent struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	logger    ports.Logger
	emitter   *eventEmitterWrapper

	mu        sync.RWMutex
	runCtx    context.Context
	page      ports.Page
	store     ports.SessionStore
	ownsStore bool
	reloader  *app.Reloader
	active    []Plugin
}

// New creates an agent in StateStopped.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Agent, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger = log.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	return &Agent{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		logger:    logger,
		emitter:   emitter,
		page:      o.page,
	}, nil
}

// Start loads the page (unless one was injected), opens the session store,
// initializes plugins and starts the connection manager in the background.
// ctx bounds the lifetime of the agent.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := a.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx := a.lifecycle.Begin(ctx)
	if err := a.setup(runCtx); err != nil {
		a.lifecycle.Cancel()
		a.closeStore()
		_ = a.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		return err
	}
	a.runCtx = runCtx

	conn := app.NewConnectionManager(
		app.ConnectionConfig{
			ChannelPath:    a.config.ChannelPath,
			ReconnectDelay: a.config.ReconnectDelay,
		},
		a.page.URL(),
		a.dialer(),
		a.reloader,
		a.logger,
		a.emitter,
	)

	reloader := a.reloader
	a.lifecycle.Go(func() {
		<-runCtx.Done()
		reloader.Close()
	})
	a.lifecycle.Go(func() {
		if err := a.lifecycle.TransitionTo(app.StateRunning, "connection manager starting"); err != nil {
			a.logger.Error("failed to transition to running", ports.Err(err))
			return
		}
		if err := conn.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("connection manager error", ports.Err(err))
			_ = a.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// setup builds the page, store, reloader and plugins for one run.
func (a *Agent) setup(ctx context.Context) error {
	if a.page == nil {
		page, err := htmlpage.Open(ctx, a.opts.httpClient, a.config.PageURL)
		if err != nil {
			return err
		}
		a.page = page
	}

	if a.opts.store != nil {
		a.store, a.ownsStore = a.opts.store, false
	} else {
		store, err := openSessionStore(a.config)
		if err != nil {
			return err
		}
		a.store, a.ownsStore = store, true
	}

	a.reloader = app.NewReloader(
		app.ReloaderConfig{
			Mode:       a.config.reloadMode(),
			RetryDelay: a.config.RetryDelay,
		},
		a.page,
		httpAdapter.NewProber(a.opts.httpClient, a.logger, a.config.PreloadConcurrency),
		scroll.NewKeeper(a.page, a.store, a.logger),
		a.logger,
		a.emitter,
	)

	reloader := a.reloader
	pluginCfg := PluginConfig{
		PageURL: a.config.PageURL,
		Logger:  a.logger,
		Trigger: func(reason string) {
			a.logger.Debug("reload triggered", ports.String("reason", reason))
			reloader.Request(ctx)
		},
	}
	a.active = a.active[:0]
	for _, p := range a.opts.plugins {
		if err := p.Initialize(ctx, pluginCfg); err != nil {
			a.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			a.shutdownPlugins()
			return err
		}
		a.active = append(a.active, p)
		a.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}
	return nil
}

func (a *Agent) dialer() ports.ChannelDialer {
	if a.opts.dialer != nil {
		return a.opts.dialer
	}
	return ws.NewDialer(ws.WithHandshakeTimeout(a.config.HTTPTimeout))
}

// Stop cancels the connection manager and any running reload cycle, shuts
// plugins down and closes the session store it opened.
// Waits up to 30 seconds before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if !a.lifecycle.CanStop() {
		a.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := a.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		a.mu.Unlock()
		return err
	}
	a.lifecycle.Cancel()
	a.mu.Unlock()

	err := a.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	a.mu.Lock()
	a.shutdownPlugins()
	a.closeStore()
	a.mu.Unlock()

	if err != nil {
		_ = a.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = a.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// shutdownPlugins shuts initialized plugins down in reverse order.
func (a *Agent) shutdownPlugins() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()

	for i := len(a.active) - 1; i >= 0; i-- {
		p := a.active[i]
		if err := p.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			a.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
	a.active = a.active[:0]
}

func (a *Agent) closeStore() {
	if a.store == nil {
		return
	}
	if a.ownsStore {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("session store close failed", ports.Err(err))
		}
	}
	a.store = nil
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (a *Agent) Status() State {
	return convertState(a.lifecycle.State())
}

// Reload requests a reload as if the server had signalled one. It reports
// whether a new cycle started; false means the request was folded into the
// running cycle or the agent is not running.
func (a *Agent) Reload() bool {
	a.mu.RLock()
	reloader, ctx := a.reloader, a.runCtx
	a.mu.RUnlock()

	if reloader == nil || ctx == nil {
		return false
	}
	return reloader.Request(ctx)
}

// Page returns the live page, or nil before the first Start when none was
// injected.
func (a *Agent) Page() Page {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.page
}

// openSessionStore opens the backend named by cfg.Storage.
func openSessionStore(cfg Config) (ports.SessionStore, error) {
	kind, err := domain.ParseStorageKind(cfg.Storage)
	if err != nil {
		return nil, err
	}
	switch kind {
	case domain.StorageFile:
		return fs.OpenSessionFileStore(cfg.StateDir)
	case domain.StorageBadger:
		dir := ""
		if cfg.StateDir != "" {
			dir = filepath.Join(cfg.StateDir, "session.badger")
		}
		return badgerAdapter.Open(dir)
	default:
		return memory.NewSessionStore(), nil
	}
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnConnect(sessionID string, reconnect bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnConnect(ConnectEvent{SessionID: sessionID, Reconnect: reconnect})
}

func (e *eventEmitterWrapper) OnDisconnect(sessionID string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnDisconnect(DisconnectEvent{SessionID: sessionID, Err: err})
}

func (e *eventEmitterWrapper) OnProbeRejected(attempt int, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnProbeRejected(ProbeRejectedEvent{Attempt: attempt, Err: err})
}

func (e *eventEmitterWrapper) OnReload(mode domain.ReloadMode, attempts int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnReload(ReloadEvent{
		Mode:     Mode(mode.String()),
		Attempts: attempts,
		Duration: duration,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
