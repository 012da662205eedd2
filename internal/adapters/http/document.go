// Package http implements the network side of a reload cycle: cache-busting
// preloads and the marker probe, both over a ports.HTTPClient.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html"

	"github.com/bft-labs/liveagent/internal/ports"
)

// maxDocumentBytes caps how much of a response body is parsed as HTML.
const maxDocumentBytes = 32 << 20

// FetchDocument GETs rawURL and parses the body as HTML whatever the status
// code. With bypassCache set, the request asks every cache on the way to
// revalidate with the origin.
func FetchDocument(ctx context.Context, client ports.HTTPClient, rawURL string, bypassCache bool) (*html.Node, error) {
	req, err := newGet(ctx, rawURL, bypassCache)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

func newGet(ctx context.Context, rawURL string, bypassCache bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if bypassCache {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}
	return req, nil
}
