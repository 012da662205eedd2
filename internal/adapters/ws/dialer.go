// Package ws implements the live channel over gorilla/websocket.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/liveagent/internal/ports"
)

const (
	// maxMessageSize bounds a single inbound message. Reload notifications
	// are tiny, so anything larger is treated as a broken peer.
	maxMessageSize = 64 << 10

	defaultHandshakeTimeout = 10 * time.Second
)

// Dialer implements ports.ChannelDialer.
type Dialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithHandshakeTimeout bounds the opening handshake.
func WithHandshakeTimeout(d time.Duration) DialerOption {
	return func(w *Dialer) {
		w.dialer.HandshakeTimeout = d
	}
}

// WithHeader adds headers to the opening handshake request.
func WithHeader(h http.Header) DialerOption {
	return func(w *Dialer) {
		w.header = h.Clone()
	}
}

// NewDialer creates a websocket dialer.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial opens a channel to addr.
func (d *Dialer) Dial(ctx context.Context, addr string) (ports.Channel, error) {
	conn, resp, err := d.dialer.DialContext(ctx, addr, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", addr, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &channel{conn: conn}, nil
}

type channel struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Read returns the payload of the next text or binary message.
func (c *channel) Read() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Close sends a close frame when it can and tears down the connection.
func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

var (
	_ ports.ChannelDialer = (*Dialer)(nil)
	_ ports.Channel       = (*channel)(nil)
)
