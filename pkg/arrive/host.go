package arrive

import (
	"context"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/pkg/dom"
	"github.com/vango-dev/arrive/pkg/loop"
)

// Observer is a subtree mutation subscription on one node.
type Observer interface {
	Observe(target *html.Node, opts dom.ObserveOptions) error
	Disconnect()
}

// Host supplies the collaborators the engine runs on: mutation
// observation, timers, and a way to run work on the host's task loop.
type Host interface {
	// NewObserver returns an observer that calls fn with each batch of
	// records. A nil observer means the host cannot observe mutations.
	NewObserver(fn func(records []dom.MutationRecord)) Observer

	// AfterFunc schedules fn on the task loop after d.
	AfterFunc(d time.Duration, fn func()) loop.Timer

	// Do runs fn on the task loop and waits for it.
	Do(ctx context.Context, fn func()) error
}

// DocumentHost adapts a dom.Document and its loop to Host.
func DocumentHost(doc *dom.Document) Host {
	return documentHost{doc: doc}
}

type documentHost struct {
	doc *dom.Document
}

func (h documentHost) NewObserver(fn func([]dom.MutationRecord)) Observer {
	return h.doc.NewObserver(func(records []dom.MutationRecord, _ *dom.MutationObserver) {
		fn(records)
	})
}

func (h documentHost) AfterFunc(d time.Duration, fn func()) loop.Timer {
	return h.doc.Loop().AfterFunc(d, fn)
}

func (h documentHost) Do(ctx context.Context, fn func()) error {
	return h.doc.Loop().Do(ctx, fn)
}
