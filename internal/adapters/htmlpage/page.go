// Package htmlpage implements ports.Page as an in-memory parsed document.
//
// Scroll offsets are tracked per element node since a parsed tree has no
// layout. Replacing content or reloading forgets every element offset and
// scrolls the window back to the origin, which is what a browser does when
// the nodes carrying scroll state go away.
package htmlpage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"

	httpAdapter "github.com/bft-labs/liveagent/internal/adapters/http"
	"github.com/bft-labs/liveagent/internal/dom"
	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
)

type offset struct {
	x, y float64
}

// Page is a live document loaded from a URL.
type Page struct {
	client ports.HTTPClient

	mu      sync.RWMutex
	url     *url.URL
	doc     *html.Node
	windowX float64
	windowY float64
	scroll  map[*html.Node]offset
}

// New wraps an already parsed document served at u. client is used by
// Reload and may be nil when the page is never reloaded.
func New(u *url.URL, doc *html.Node, client ports.HTTPClient) *Page {
	copied := *u
	return &Page{
		client: client,
		url:    &copied,
		doc:    doc,
		scroll: make(map[*html.Node]offset),
	}
}

// Parse builds a page from HTML source, as if it had been served at rawURL.
func Parse(rawURL, src string, client ports.HTTPClient) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return New(u, doc, client), nil
}

// Open loads the page at rawURL.
func Open(ctx context.Context, client ports.HTTPClient, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := httpAdapter.FetchDocument(ctx, client, u.String(), false)
	if err != nil {
		return nil, err
	}
	return New(u, doc, client), nil
}

// URL returns a copy of the page location.
func (p *Page) URL() *url.URL {
	p.mu.RLock()
	defer p.mu.RUnlock()
	copied := *p.url
	return &copied
}

// Document returns the live document root.
func (p *Page) Document() *html.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc
}

// WindowScroll returns the window offsets.
func (p *Page) WindowScroll() (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.windowX, p.windowY
}

// ScrollWindowTo sets the window offsets.
func (p *Page) ScrollWindowTo(x, y float64) {
	p.mu.Lock()
	p.windowX, p.windowY = x, y
	p.mu.Unlock()
}

// ElementScroll returns the offsets of el, zero if it was never scrolled.
func (p *Page) ElementScroll(el *html.Node) (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o := p.scroll[el]
	return o.x, o.y
}

// SetElementScroll sets the offsets of el.
func (p *Page) SetElementScroll(el *html.Node, x, y float64) {
	if el == nil {
		return
	}
	p.mu.Lock()
	p.scroll[el] = offset{x: x, y: y}
	p.mu.Unlock()
}

// ReplaceContent swaps the live head and body for head and body, which are
// removed from whatever tree they belonged to. The document root and its
// other children are kept.
func (p *Page) ReplaceContent(head, body *html.Node) error {
	if head == nil || body == nil {
		return domain.ErrNoHead
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	liveHead, liveBody := dom.Head(p.doc), dom.Body(p.doc)
	if liveHead == nil || liveBody == nil {
		return domain.ErrNoHead
	}

	swap(liveHead, head)
	swap(liveBody, body)

	p.resetScroll()
	return nil
}

// Reload fetches the page again and replaces the whole document.
func (p *Page) Reload(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("reload %s: no http client", p.URL())
	}
	u := p.URL()
	doc, err := httpAdapter.FetchDocument(ctx, p.client, u.String(), true)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.doc = doc
	p.resetScroll()
	p.mu.Unlock()
	return nil
}

// Render writes the live document as HTML.
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return html.Render(w, p.doc)
}

func (p *Page) resetScroll() {
	p.windowX, p.windowY = 0, 0
	clear(p.scroll)
}

// swap puts repl where old is and detaches old.
func swap(old, repl *html.Node) {
	if old == repl {
		return
	}
	if repl.Parent != nil {
		repl.Parent.RemoveChild(repl)
	}
	parent := old.Parent
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
}

var _ ports.Page = (*Page)(nil)
