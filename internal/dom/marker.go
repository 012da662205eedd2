package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bft-labs/liveagent/internal/domain"
)

// HasReloadMarker reports whether the head of doc carries
// <meta name="live-server" content="reload">. Only the first live-server
// meta element is considered, and its content must match exactly.
func HasReloadMarker(doc *html.Node) bool {
	head := Head(doc)
	if head == nil {
		return false
	}
	var meta *html.Node
	walk(head, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta && Attr(n, "name") == domain.MarkerName {
			meta = n
			return false
		}
		return true
	})
	return meta != nil && Attr(meta, "content") == domain.MarkerContent
}
