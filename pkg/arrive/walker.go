package arrive

import (
	"fmt"

	"golang.org/x/net/html"
)

// cause records why a handler was invoked.
type cause uint8

const (
	causeMatch     cause = iota // Node added (arrive) or removed (leave)
	causeAttribute              // Attribute change made the node match
	causeExisting               // Present at bind time
	causeTimeout                // Timeout elapsed
)

// String returns the metric label for the cause.
func (c cause) String() string {
	switch c {
	case causeMatch:
		return "match"
	case causeAttribute:
		return "attribute"
	case causeExisting:
		return "existing"
	case causeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// pending is a handler invocation collected during a walk.
type pending struct {
	reg  *registration
	node *html.Node

	// final marks the single firing of a onceOnly registration, which is
	// already unbound by the time it is dispatched.
	final bool
	cause cause
}

// checkNode appends an invocation for n if it matches r and has not been
// seen. A onceOnly registration is unbound here, before anything is
// dispatched, so later nodes and batches find it inert.
func (e *Engine) checkNode(r *registration, n *html.Node, seen map[*html.Node]struct{}, c cause, out []pending) []pending {
	if r.done || !matches(r.sel, n) {
		return out
	}
	if _, dup := seen[n]; dup {
		return out
	}
	seen[n] = struct{}{}

	if r.opts.OnceOnly {
		r.done = true
		e.unbindBinding(r)
		return append(out, pending{reg: r, node: n, final: true, cause: c})
	}
	e.restartTimer(r)
	return append(out, pending{reg: r, node: n, cause: c})
}

// walk visits nodes and all their descendants in pre-order.
func (e *Engine) walk(r *registration, nodes []*html.Node, seen map[*html.Node]struct{}, c cause, out []pending) []pending {
	for _, n := range nodes {
		out = e.walkNode(r, n, seen, c, out)
	}
	return out
}

func (e *Engine) walkNode(r *registration, n *html.Node, seen map[*html.Node]struct{}, c cause, out []pending) []pending {
	if r.done || n == nil {
		return out
	}
	out = e.checkNode(r, n, seen, c, out)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = e.walkNode(r, child, seen, c, out)
	}
	return out
}

// scanExisting feeds the observed node's current descendants through
// checkNode and dispatches the matches immediately.
func (e *Engine) scanExisting(r *registration) {
	var batch []pending
	for child := r.observed.FirstChild; child != nil; child = child.NextSibling {
		batch = e.walkNode(r, child, r.fired, causeExisting, batch)
	}
	e.dispatch(batch)
}

// dispatch invokes collected handlers in discovery order. A non-final
// invocation is skipped if its registration left the store after the walk,
// for example because an earlier handler unbound it.
func (e *Engine) dispatch(batch []pending) {
	for _, p := range batch {
		if !p.final && !e.bucket(p.reg.kind).contains(p.reg) {
			continue
		}
		e.invoke(p)
	}
}

func (e *Engine) invoke(p pending) {
	defer func() {
		if rec := recover(); rec != nil {
			e.metrics.handlerPanicked(p.reg.kind)
			e.logger.Error("handler panicked",
				"kind", p.reg.kind,
				"selector", p.reg.selector,
				"panic", fmt.Sprint(rec),
			)
		}
	}()
	e.metrics.handlerFired(p.reg.kind, p.cause)
	p.reg.handler.call(p.node)
}
