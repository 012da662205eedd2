package app

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
)

// DefaultReconnectDelay is the fixed pause between a closed channel and the
// next connect attempt.
const DefaultReconnectDelay = 3 * time.Second

// ConnectionConfig contains configuration for the connection manager.
type ConnectionConfig struct {
	ChannelPath    string
	ReconnectDelay time.Duration
}

// Requester receives reload requests.
type Requester interface {
	Request(ctx context.Context) bool
}

// ConnectionEventEmitter is called when a channel session opens or ends.
type ConnectionEventEmitter interface {
	OnConnect(sessionID string, reconnect bool)
	OnDisconnect(sessionID string, err error)
}

// ConnectionManager keeps one live channel open to the page's host and turns
// every inbound message, and every reconnect after a drop, into a reload
// request. It never gives up.
type ConnectionManager struct {
	config    ConnectionConfig
	address   string
	dialer    ports.ChannelDialer
	requester Requester
	logger    ports.Logger
	emitter   ConnectionEventEmitter

	// interrupted is false until the first channel opens. Only Run touches it.
	interrupted bool
}

// NewConnectionManager creates a connection manager for the page at pageURL.
func NewConnectionManager(
	config ConnectionConfig,
	pageURL *url.URL,
	dialer ports.ChannelDialer,
	requester Requester,
	logger ports.Logger,
	emitter ConnectionEventEmitter,
) *ConnectionManager {
	if config.ChannelPath == "" {
		config.ChannelPath = domain.ChannelPath
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	return &ConnectionManager{
		config:    config,
		address:   ChannelAddress(pageURL, config.ChannelPath),
		dialer:    dialer,
		requester: requester,
		logger:    logger,
		emitter:   emitter,
	}
}

// ChannelAddress returns the live channel URL for a page: wss for https
// pages and ws otherwise, on the page's host.
func ChannelAddress(pageURL *url.URL, path string) string {
	scheme := "ws"
	if pageURL.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   pageURL.Host,
		Path:   path,
	}
	return u.String()
}

// Address returns the live channel URL.
func (m *ConnectionManager) Address() string {
	return m.address
}

// Run connects, reads until the channel closes, waits the reconnect delay
// and starts over. It returns only when ctx is done.
func (m *ConnectionManager) Run(ctx context.Context) error {
	for {
		m.session(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.ReconnectDelay):
		}
		m.logger.Info("reconnecting", ports.String("address", m.address))
	}
}

// session runs one channel session from dial to close.
func (m *ConnectionManager) session(ctx context.Context) {
	id := uuid.NewString()
	logger := m.logger.With(ports.String("session", id))

	ch, err := m.dialer.Dial(ctx, m.address)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("connect failed", ports.String("address", m.address), ports.Err(err))
		}
		m.disconnected(id, err)
		return
	}

	reconnect := m.interrupted
	m.interrupted = true
	logger.Info("connection established",
		ports.String("address", m.address),
		ports.Bool("reconnect", reconnect),
	)
	if m.emitter != nil {
		m.emitter.OnConnect(id, reconnect)
	}
	if reconnect {
		m.requester.Request(ctx)
	}

	stop := context.AfterFunc(ctx, func() { _ = ch.Close() })
	defer stop()

	for {
		msg, err := ch.Read()
		if err != nil {
			_ = ch.Close()
			if ctx.Err() == nil {
				logger.Debug("connection closed", ports.Err(err))
			}
			m.disconnected(id, err)
			return
		}
		logger.Debug("reload signal", ports.Int("bytes", len(msg)))
		m.requester.Request(ctx)
	}
}

func (m *ConnectionManager) disconnected(id string, err error) {
	if m.emitter != nil {
		m.emitter.OnDisconnect(id, err)
	}
}
