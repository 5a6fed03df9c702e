// Package scenario loads and replays YAML scenarios against an arrive
// engine.
//
// A scenario is a document, a set of registrations and a list of steps
// that mutate the document or advance a manual clock:
//
//	name: todo list
//	document: |
//	  <ul id="list"><li class="item" id="a">first</li></ul>
//	registrations:
//	  - name: items
//	    kind: arrive
//	    target: "#list"
//	    selector: li.item
//	    options: {existing: true, timeout: 300ms}
//	  - name: gone
//	    kind: leave
//	    selector: li.item
//	steps:
//	  - append: {parent: "#list", html: '<li class="item" id="b">second</li>'}
//	  - remove: "#a"
//	  - setAttr: {target: "#b", name: class, value: "item done"}
//	  - advance: 300ms
//	  - unbind: items
//
// Replay runs everything on a private loop driven by a manual clock, so
// the resulting event log is deterministic.
package scenario
