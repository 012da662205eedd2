// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// The reload engine in internal/app depends only on these interfaces.
// Adapters in internal/adapters implement them with gorilla/websocket,
// net/http, x/net/html, badger and the file system.
//
// # Port Interfaces
//
//   - [ChannelDialer] and [Channel]: the live reload channel
//   - [PageProber]: cache-busting preloads and the ?reload probe request
//   - [Page]: the live document, its location and scroll state
//   - [SessionStore]: tab-scoped key/value storage for scroll snapshots
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
package ports
