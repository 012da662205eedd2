package ports

import (
	"context"
	"io"
	"net/url"

	"golang.org/x/net/html"
)

// Page is the live document the agent keeps in sync with the reload server.
//
// Node pointers handed out by Document stay valid until the next
// ReplaceContent or Reload.
type Page interface {
	// URL returns a copy of the current location.
	URL() *url.URL

	// Document returns the live document root.
	Document() *html.Node

	// WindowScroll returns the window scroll offsets.
	WindowScroll() (x, y float64)

	// ScrollWindowTo sets the window scroll offsets.
	ScrollWindowTo(x, y float64)

	// ElementScroll returns the scroll offsets of an element.
	ElementScroll(el *html.Node) (x, y float64)

	// SetElementScroll sets the scroll offsets of an element.
	SetElementScroll(el *html.Node, x, y float64)

	// ReplaceContent swaps the live head and body for the given nodes,
	// detaching them from their own document first.
	ReplaceContent(head, body *html.Node) error

	// Reload performs a full navigation to the current URL.
	Reload(ctx context.Context) error

	// Render writes the live document as HTML.
	Render(w io.Writer) error
}
