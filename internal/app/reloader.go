package app

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bft-labs/liveagent/internal/dom"
	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
	"github.com/bft-labs/liveagent/internal/scroll"
)

// DefaultRetryDelay is the pause between rejected probes.
const DefaultRetryDelay = 500 * time.Millisecond

// ReloaderConfig contains configuration for the reload orchestrator.
type ReloaderConfig struct {
	Mode       domain.ReloadMode
	RetryDelay time.Duration
}

// ReloadEventEmitter is called as reload cycles progress.
type ReloadEventEmitter interface {
	OnProbeRejected(attempt int, err error)
	OnReload(mode domain.ReloadMode, attempts int, duration time.Duration)
}

// Reloader serializes reload requests. At most one cycle runs at a time and
// requests made while it runs are folded into a single follow-up iteration.
type Reloader struct {
	config  ReloaderConfig
	page    ports.Page
	prober  ports.PageProber
	keeper  *scroll.Keeper
	logger  ports.Logger
	emitter ReloadEventEmitter

	mu     sync.Mutex
	state  domain.CycleState
	closed bool
	wg     sync.WaitGroup
}

// NewReloader creates a reload orchestrator for page.
func NewReloader(
	config ReloaderConfig,
	page ports.Page,
	prober ports.PageProber,
	keeper *scroll.Keeper,
	logger ports.Logger,
	emitter ReloadEventEmitter,
) *Reloader {
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	return &Reloader{
		config:  config,
		page:    page,
		prober:  prober,
		keeper:  keeper,
		logger:  logger,
		emitter: emitter,
		state:   domain.CycleIdle,
	}
}

// State returns the current cycle state.
func (r *Reloader) State() domain.CycleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Request asks for a reload. If no cycle is running, it snapshots scroll
// state and starts one bound to ctx, returning true. Otherwise it marks the
// running cycle as having a pending request and returns false. Requests on
// a done context or after Close are ignored.
func (r *Reloader) Request(ctx context.Context) bool {
	r.mu.Lock()
	if r.closed || ctx.Err() != nil {
		r.mu.Unlock()
		return false
	}
	if r.state != domain.CycleIdle {
		r.state = domain.CycleRunningWithPending
		r.mu.Unlock()
		return false
	}
	r.state = domain.CycleRunning
	r.wg.Add(1)
	r.mu.Unlock()

	if err := r.keeper.Snapshot(ctx); err != nil {
		r.logger.Warn("scroll snapshot failed", ports.Err(err))
	}

	go func() {
		defer r.wg.Done()
		r.cycle(ctx)
	}()
	return true
}

// Wait blocks until the running cycle, if any, has finished.
func (r *Reloader) Wait() {
	r.wg.Wait()
}

// Close stops accepting requests and waits for the running cycle.
// wg.Add only happens under mu while closed is false, so no Add can race
// with the final Wait.
func (r *Reloader) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// cycle probes until a marker-confirmed commit or until ctx is done.
func (r *Reloader) cycle(ctx context.Context) {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		r.mu.Lock()
		r.state = domain.CycleRunning
		r.mu.Unlock()

		committed, err := r.attempt(ctx)
		if committed {
			r.logCommit(attempt, time.Since(start))
			return
		}
		if ctx.Err() != nil {
			r.finish()
			return
		}
		if err == nil {
			r.logger.Debug("reload superseded by a newer request", ports.Int("attempt", attempt))
			continue
		}

		r.logger.Debug("probe rejected",
			ports.Int("attempt", attempt),
			ports.Err(err),
		)
		if r.emitter != nil {
			r.emitter.OnProbeRejected(attempt, err)
		}

		select {
		case <-ctx.Done():
			r.finish()
			return
		case <-time.After(r.config.RetryDelay):
		}
	}
}

// attempt runs one probe iteration and reports whether the page was
// committed. A nil error without a commit means a newer request arrived
// after the probe was confirmed, so the iteration runs again at once.
func (r *Reloader) attempt(ctx context.Context) (bool, error) {
	current := r.page.URL()
	r.prober.Preload(ctx, dom.ResourceURLs(r.page.Document(), current))

	probe, err := r.prober.Probe(ctx, pageAddress(current))
	if err != nil {
		return false, err
	}
	if !dom.HasReloadMarker(probe) {
		return false, domain.ErrMissingMarker
	}

	if r.pending() {
		return false, nil
	}

	switch r.config.Mode {
	case domain.ModeHard:
		if err := r.page.Reload(ctx); err != nil {
			return false, fmt.Errorf("hard reload: %w", err)
		}
	default:
		if err := r.page.ReplaceContent(dom.Head(probe), dom.Body(probe)); err != nil {
			return false, err
		}
		r.keeper.Restore(ctx)
	}

	// A request that arrived during the commit needs one more pass.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == domain.CycleRunningWithPending {
		return false, nil
	}
	r.state = domain.CycleIdle
	return true, nil
}

// pageAddress returns the origin and path of u.
func pageAddress(u *url.URL) string {
	stripped := url.URL{
		Scheme:  u.Scheme,
		User:    u.User,
		Host:    u.Host,
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	return stripped.String()
}

func (r *Reloader) pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == domain.CycleRunningWithPending
}

func (r *Reloader) finish() {
	r.mu.Lock()
	r.state = domain.CycleIdle
	r.mu.Unlock()
}

func (r *Reloader) logCommit(attempts int, duration time.Duration) {
	if r.config.Mode == domain.ModeHard {
		r.logger.Info("hard reload",
			ports.Int("attempts", attempts),
			ports.Duration("duration", duration),
		)
	} else {
		r.logger.Info("reloaded",
			ports.Int("attempts", attempts),
			ports.Duration("duration", duration),
		)
	}
	if r.emitter != nil {
		r.emitter.OnReload(r.config.Mode, attempts, duration)
	}
}
