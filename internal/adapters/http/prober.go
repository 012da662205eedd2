package http

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
)

// DefaultPreloadConcurrency bounds the number of preloads in flight.
const DefaultPreloadConcurrency = 8

// Prober implements ports.PageProber over HTTP.
type Prober struct {
	client      ports.HTTPClient
	logger      ports.Logger
	concurrency int
}

// NewProber creates a prober. A concurrency below 1 uses DefaultPreloadConcurrency.
func NewProber(client ports.HTTPClient, logger ports.Logger, concurrency int) *Prober {
	if concurrency < 1 {
		concurrency = DefaultPreloadConcurrency
	}
	return &Prober{
		client:      client,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Preload re-requests every URL with caches bypassed so the probe load that
// follows finds fresh resources. It waits for all requests to settle and
// never fails.
func (p *Prober) Preload(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			if err := p.preload(ctx, u); err != nil {
				p.logger.Debug("preload failed", ports.String("url", u), ports.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Prober) preload(ctx context.Context, rawURL string) error {
	req, err := newGet(ctx, rawURL, true)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// Probe loads pageURL with the reload query marker and returns the parsed
// document, whatever the status code.
func (p *Prober) Probe(ctx context.Context, pageURL string) (*html.Node, error) {
	u, err := ProbeURL(pageURL)
	if err != nil {
		return nil, err
	}
	return FetchDocument(ctx, p.client, u, true)
}

// ProbeURL replaces the query of pageURL with the reload marker.
func ProbeURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	u.RawQuery = domain.ProbeQuery
	u.Fragment = ""
	return u.String(), nil
}

var _ ports.PageProber = (*Prober)(nil)
