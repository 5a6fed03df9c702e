package arrive

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/pkg/dom"
	"github.com/vango-dev/arrive/pkg/loop"
)

// registration is one bound (target, selector, handler) triple.
type registration struct {
	kind     Kind
	target   *html.Node // identity used for unbind matching
	observed *html.Node // node the observer is attached to
	selector string
	sel      Selector
	opts     Options
	handler  *Handler
	sub      *Subscription

	observer Observer
	timer    loop.Timer

	// fired holds every element already dispatched. Arrive only.
	fired map[*html.Node]struct{}

	// live is maintained by the bucket: true between add and removal.
	live bool

	// done is set once a onceOnly registration has recorded its single
	// firing, before any handler runs.
	done bool
}

func newRegistration(k Kind, target *html.Node, selector string, sel Selector, opts Options, h *Handler, sub *Subscription) *registration {
	return &registration{
		kind:     k,
		target:   target,
		observed: observedNode(target),
		selector: selector,
		sel:      sel,
		opts:     opts,
		handler:  h,
		sub:      sub,
		fired:    make(map[*html.Node]struct{}),
	}
}

// observeOptions translates the registration into observer configuration.
func (r *registration) observeOptions() dom.ObserveOptions {
	o := dom.ObserveOptions{ChildList: true, Subtree: true}
	if r.kind == KindArrive && r.opts.FireOnAttributesModification {
		o.Attributes = true
		o.AttributeFilter = r.opts.AttributeFilter
	}
	return o
}

// sameBinding reports whether other was bound with the same target,
// selector and handler.
func (r *registration) sameBinding(other *registration) bool {
	return r.target == other.target && r.selector == other.selector && r.handler == other.handler
}

// observedNode substitutes the document node, which cannot be observed
// directly, with its <body> (or root element).
func observedNode(target *html.Node) *html.Node {
	if target == nil || target.Type != html.DocumentNode {
		return target
	}
	if body := dom.Body(target); body != nil {
		return body
	}
	if de := dom.DocumentElement(target); de != nil {
		return de
	}
	return target
}
