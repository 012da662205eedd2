package ports

import (
	"context"

	"golang.org/x/net/html"
)

// PageProber performs the network side of a reload cycle.
type PageProber interface {
	// Preload fetches every URL with caches bypassed and waits until all
	// requests have settled. Individual failures are ignored.
	Preload(ctx context.Context, urls []string)

	// Probe loads pageURL with the ?reload marker and returns the parsed
	// document. A non-2xx response still yields its parsed document; only
	// transport and parse failures return an error.
	Probe(ctx context.Context, pageURL string) (*html.Node, error)
}
