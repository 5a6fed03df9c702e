package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/vango-dev/arrive/pkg/loop"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a mutable HTML tree that notifies observers of changes.
// It is not safe for concurrent use; mutate it from tasks on its loop.
type Document struct {
	root      *html.Node
	loop      *loop.Loop
	observers []*MutationObserver
}

// New returns an empty document (<html><head></head><body></body></html>).
func New(l *loop.Loop) *Document {
	doc, _ := ParseString(l, "")
	return doc
}

// Parse reads an HTML document from r.
func Parse(l *loop.Loop, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = loop.New()
	}
	return &Document{root: root, loop: l}, nil
}

// ParseString parses s as an HTML document.
func ParseString(l *loop.Loop, s string) (*Document, error) {
	return Parse(l, strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Loop returns the loop mutation records are delivered on.
func (d *Document) Loop() *loop.Loop {
	return d.loop
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() *html.Node {
	return DocumentElement(d.root)
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	return Body(d.root)
}

// DocumentElement returns the first element child of a document node.
func DocumentElement(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the <body> child of a document node's root element.
func Body(doc *html.Node) *html.Node {
	de := DocumentElement(doc)
	if de == nil {
		return nil
	}
	for c := de.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Body {
			return c
		}
	}
	return nil
}

// AppendChild adds child as the last child of parent. A child that already
// has a parent is removed from it first, producing its own record.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if child.Parent != nil {
		d.RemoveChild(child.Parent, child)
	}

	var prev *html.Node
	if ref != nil {
		prev = ref.PrevSibling
	} else {
		prev = parent.LastChild
	}
	parent.InsertBefore(child, ref)

	d.notify(MutationRecord{
		Type:            ChildList,
		Target:          parent,
		AddedNodes:      []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     ref,
	})
}

// AppendChildren appends every node to parent in one record.
func (d *Document) AppendChildren(parent *html.Node, children ...*html.Node) {
	if parent == nil || len(children) == 0 {
		return
	}
	for _, c := range children {
		if c.Parent != nil {
			d.RemoveChild(c.Parent, c)
		}
	}
	prev := parent.LastChild
	for _, c := range children {
		parent.AppendChild(c)
	}
	d.notify(MutationRecord{
		Type:            ChildList,
		Target:          parent,
		AddedNodes:      append([]*html.Node(nil), children...),
		PreviousSibling: prev,
	})
}

// RemoveChild detaches child from parent. It is a no-op if child is not a
// child of parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	if parent == nil || child == nil || child.Parent != parent {
		return
	}
	prev, next := child.PrevSibling, child.NextSibling
	parent.RemoveChild(child)

	d.notify(MutationRecord{
		Type:            ChildList,
		Target:          parent,
		RemovedNodes:    []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     next,
	})
}

// Remove detaches n from its parent, if any.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	d.RemoveChild(n.Parent, n)
}

// ReplaceChildren removes every child of parent and appends children, in
// a single record.
func (d *Document) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	if parent == nil {
		return
	}
	var removed []*html.Node
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	for _, c := range children {
		if c.Parent != nil {
			d.RemoveChild(c.Parent, c)
		}
		parent.AppendChild(c)
	}
	if len(removed) == 0 && len(children) == 0 {
		return
	}
	d.notify(MutationRecord{
		Type:         ChildList,
		Target:       parent,
		AddedNodes:   append([]*html.Node(nil), children...),
		RemovedNodes: removed,
	})
}

// SetAttribute sets key to val on n.
func (d *Document) SetAttribute(n *html.Node, key, val string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	old, had := "", false
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			old, had = n.Attr[i].Val, true
			n.Attr[i].Val = val
			break
		}
	}
	if !had {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
	d.notify(MutationRecord{
		Type:          Attributes,
		Target:        n,
		AttributeName: key,
		OldValue:      old,
	})
}

// RemoveAttribute deletes key from n. It is a no-op if the attribute is
// absent.
func (d *Document) RemoveAttribute(n *html.Node, key string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			old := n.Attr[i].Val
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.notify(MutationRecord{
				Type:          Attributes,
				Target:        n,
				AttributeName: key,
				OldValue:      old,
			})
			return
		}
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// OuterHTML renders n and its descendants.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// GetAttribute returns the value of key on n.
func GetAttribute(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Contains reports whether n is ancestor or equal to other.
func Contains(n, other *html.Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}
