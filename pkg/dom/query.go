package dom

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Query returns the first element under root (excluding root) matching
// selector, or nil.
func Query(root *html.Node, selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := sel.MatchFirst(c); n != nil {
			return n, nil
		}
	}
	return nil, nil
}

// QueryAll returns every element under root (excluding root) matching
// selector, in document order.
func QueryAll(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sel.MatchAll(c)...)
	}
	return out, nil
}

// Matches reports whether n is an element matching selector.
func Matches(n *html.Node, selector string) (bool, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return false, err
	}
	return n != nil && n.Type == html.ElementNode && sel.Match(n), nil
}

// Query is Query on the document node.
func (d *Document) Query(selector string) (*html.Node, error) {
	return Query(d.root, selector)
}

// QueryAll is QueryAll on the document node.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	return QueryAll(d.root, selector)
}
