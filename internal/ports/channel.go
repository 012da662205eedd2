package ports

import "context"

// Channel is one open live channel connection.
type Channel interface {
	// Read blocks until the next inbound message arrives.
	// Any error means the channel is unusable and must be closed.
	Read() ([]byte, error)

	// Close closes the connection. It is safe to call more than once and
	// from another goroutine to unblock a pending Read.
	Close() error
}

// ChannelDialer opens live channel connections.
type ChannelDialer interface {
	// Dial connects to addr (a ws:// or wss:// URL).
	Dial(ctx context.Context, addr string) (Channel, error)
}
