// Package dom provides a live HTML document that reports its own changes.
//
// A Document wraps a golang.org/x/net/html tree. Every structural or
// attribute change made through the Document is recorded as a
// MutationRecord and delivered, batched per observer, as a task on the
// document's loop.Loop. This mirrors the subtree mutation observation
// facility of a browser: changes are never reported synchronously, and a
// disconnected observer stops receiving records that were not yet queued.
//
// # Building trees
//
// Element and Text build detached nodes with attributes and children:
//
//	li := dom.Element("li", dom.Class("item", "new"), dom.Data("id", "7"),
//	    dom.Element("span", dom.Text("Seven")),
//	)
//	doc.AppendChild(list, li)
//
// # Observing
//
//	obs := doc.NewObserver(func(records []dom.MutationRecord, _ *dom.MutationObserver) {
//	    for _, r := range records {
//	        fmt.Println(r.Type, len(r.AddedNodes))
//	    }
//	})
//	obs.Observe(doc.Body(), dom.ObserveOptions{ChildList: true, Subtree: true})
package dom
