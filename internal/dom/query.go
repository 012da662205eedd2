package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bft-labs/liveagent/internal/domain"
)

var scrollTargets = cascadia.MustCompile("[" + domain.PreserveScrollAttr + "]")

// Attr returns the value of the attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries the attribute key.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// ElementByID returns the first element under root whose id is id.
func ElementByID(root *html.Node, id string) *html.Node {
	if root == nil || id == "" {
		return nil
	}
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryFirst returns the first element under root matching the CSS selector.
func QueryFirst(root *html.Node, selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	return sel.MatchFirst(root), nil
}

// ScrollTargets returns the elements tagged with the preserve-scroll
// attribute, in document order.
func ScrollTargets(root *html.Node) []*html.Node {
	if root == nil {
		return nil
	}
	return scrollTargets.MatchAll(root)
}

// Head returns the document's head element.
func Head(doc *html.Node) *html.Node {
	return firstElement(doc, atom.Head)
}

// Body returns the document's body element.
func Body(doc *html.Node) *html.Node {
	return firstElement(doc, atom.Body)
}

func firstElement(root *html.Node, a atom.Atom) *html.Node {
	if root == nil {
		return nil
	}
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits n and its descendants depth-first in document order until
// visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}
