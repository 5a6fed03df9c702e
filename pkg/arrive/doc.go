// Package arrive fires callbacks when elements matching a CSS selector
// arrive in, or leave, a live document tree.
//
// An Engine owns two registration stores, one for arrive and one for leave.
// Each bind creates one registration per target node. A registration owns
// exactly one mutation observer on its target; every batch of records the
// observer delivers is walked in document order, matched against the
// selector, de-duplicated and dispatched.
//
// # Usage
//
//	l := loop.New()
//	doc, _ := dom.ParseString(l, page)
//	e := arrive.New(arrive.DocumentHost(doc))
//
//	sub, err := e.Arrive(doc.Root(), "li.item", arrive.NewHandler(func(n *html.Node) {
//	    fmt.Println("arrived:", dom.OuterHTML(n))
//	}), arrive.Existing())
//
// # Options
//
//   - OnceOnly: fire at most once, then unbind.
//   - Existing: also fire for matching elements present at bind time (arrive only).
//   - FireOnAttributesModification: also test elements whose attributes change (arrive only).
//   - Timeout: fire the handler with a nil node if nothing matched in time;
//     every match restarts the countdown.
//
// # Streams and futures
//
// Binding without a handler returns a Subscription whose Next method yields
// each match in turn. AwaitArrive and AwaitLeave bind once-only and block
// until the first match or the timeout.
//
// # Threading
//
// Engine methods and handlers run on the host's task loop. Handlers are
// invoked after the whole batch has been walked, so a handler that mutates
// the tree cannot change which elements the current batch matched.
package arrive
