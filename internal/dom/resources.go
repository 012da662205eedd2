package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ResourceURLs walks the head and body of doc and returns the absolute URL of
// every script with a src and every link with an href, in document order.
// References are resolved against base; only http and https URLs are kept.
func ResourceURLs(doc *html.Node, base *url.URL) []string {
	var urls []string
	for _, root := range []*html.Node{Head(doc), Body(doc)} {
		if root == nil {
			continue
		}
		collectResources(root, base, &urls)
	}
	return urls
}

func collectResources(n *html.Node, base *url.URL, urls *[]string) {
	if n.Type == html.ElementNode {
		var ref string
		switch n.DataAtom {
		case atom.Script:
			ref = Attr(n, "src")
		case atom.Link:
			ref = Attr(n, "href")
		}
		if ref = strings.TrimSpace(ref); ref != "" {
			if u := resolve(base, ref); u != "" {
				*urls = append(*urls, u)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectResources(c, base, urls)
	}
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
