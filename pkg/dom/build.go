package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a single attribute passed to Element.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// A sets an arbitrary attribute.
func A(key, value string) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return A("data-"+key, value) }

// Element creates a detached element node.
// Arguments can be: nil, Attr, []Attr, *html.Node, []*html.Node, string.
// Strings become text children.
func Element(tag string, args ...any) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			setAttr(n, v)
		case []Attr:
			for _, a := range v {
				setAttr(n, a)
			}
		case *html.Node:
			if v != nil {
				n.AppendChild(v)
			}
		case []*html.Node:
			for _, c := range v {
				if c != nil {
					n.AppendChild(c)
				}
			}
		case string:
			n.AppendChild(Text(v))
		}
	}
	return n
}

func setAttr(n *html.Node, a Attr) {
	if a.IsEmpty() {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == a.Key {
			n.Attr[i].Val = a.Value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Value})
}

// Text creates a detached text node.
func Text(content string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: content}
}

// Fragment parses s as the children of a <body> element and returns the
// detached top-level nodes.
func Fragment(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return nodes, nil
}

// Walk calls fn for n and each of its descendants in document order.
// Returning false from fn skips the node's descendants.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}
