package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// UniqueSelector returns a CSS path that re-locates el in a freshly parsed
// copy of the same page.
//
// An element with an id short-circuits to "#id". Otherwise each ancestor up
// to the body contributes tag[.classes][:nth-of-type(n)]; the walk stops at
// body (emitting "body") or at the first ancestor with an id (emitting
// "#id" in place of that ancestor's segment). The result is a structural
// fingerprint, not a uniqueness guarantee.
func UniqueSelector(el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}
	if id := Attr(el, "id"); id != "" {
		return "#" + id
	}

	var path []string
	for n := el; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.DataAtom == atom.Body {
			path = append(path, "body")
			break
		}
		if id := Attr(n, "id"); id != "" {
			// "#id" replaces the segment; "#id > segment" would demand the
			// ancestor be a child of itself and never match.
			path = append(path, "#"+id)
			break
		}
		path = append(path, segment(n))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return strings.Join(path, " > ")
}

func segment(n *html.Node) string {
	var b strings.Builder
	tag := strings.ToLower(n.Data)
	b.WriteString(tag)

	for _, class := range classList(n) {
		b.WriteByte('.')
		b.WriteString(class)
	}

	if nth := nthOfType(n, tag); nth > 1 {
		b.WriteString(":nth-of-type(")
		b.WriteString(strconv.Itoa(nth))
		b.WriteByte(')')
	}
	return b.String()
}

// classList splits the class attribute into unique tokens, keeping order.
func classList(n *html.Node) []string {
	fields := strings.Fields(Attr(n, "class"))
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// nthOfType is 1 plus the number of preceding element siblings sharing tag.
func nthOfType(n *html.Node, tag string) int {
	nth := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && strings.ToLower(s.Data) == tag {
			nth++
		}
	}
	return nth
}
