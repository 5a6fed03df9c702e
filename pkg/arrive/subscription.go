package arrive

import (
	"context"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/internal/errors"
)

// ErrSubscriptionClosed is returned by Next once every registration of the
// subscription is gone and all queued matches were consumed.
var ErrSubscriptionClosed = errors.New("A010")

// Subscription is the result of one bind. It tracks the registrations the
// bind created and ends when all of them are removed, whether by Cancel,
// an unbind, a onceOnly firing or a onceOnly timeout.
//
// When bound without a handler, every firing is queued and can be pulled
// with Next. A nil node means a timeout elapsed.
type Subscription struct {
	engine  *Engine
	kind    Kind
	handler *Handler
	stream  bool

	// Loop-owned state.
	regs    []*registration
	live    int
	binding bool

	mu     sync.Mutex
	queue  []*html.Node
	notify chan struct{}
	done   chan struct{}
	closed bool
}

func newSubscription(e *Engine, k Kind, h *Handler) *Subscription {
	s := &Subscription{
		engine:  e,
		kind:    k,
		handler: h,
		binding: true,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if h == nil {
		s.stream = true
		s.handler = NewHandler(s.push)
	}
	return s
}

// Kind returns whether this is an arrive or leave subscription.
func (s *Subscription) Kind() Kind {
	return s.kind
}

// Handler returns the handler registrations were bound with. For stream
// subscriptions it is an internal handler that feeds Next; it can still be
// used with ByHandler.
func (s *Subscription) Handler() *Handler {
	return s.handler
}

// Active reports whether any registration of s is still bound. Call it
// from the loop.
func (s *Subscription) Active() bool {
	return s.live > 0
}

// Cancel removes every registration of s that is still bound. Call it from
// the loop. Cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	if s.engine == nil || s.live == 0 {
		return
	}
	s.engine.bucket(s.kind).removeWhere(func(r *registration) bool {
		return r.sub == s
	})
}

// Done is closed when the subscription has no bound registrations left.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Next returns the next queued firing. It blocks until one is available,
// the subscription ends, or ctx is done. Subscriptions bound with a handler
// never queue firings, so Next only reports their end.
func (s *Subscription) Next(ctx context.Context) (*html.Node, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			n := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return n, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return nil, ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		case <-s.done:
		}
	}
}

func (s *Subscription) push(n *html.Node) {
	s.mu.Lock()
	s.queue = append(s.queue, n)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) track(r *registration) {
	s.regs = append(s.regs, r)
	s.live++
}

func (s *Subscription) released(*registration) {
	s.live--
	if s.live <= 0 && !s.binding {
		s.close()
	}
}

// finish ends the bind phase. A bind that left nothing registered ends the
// subscription immediately.
func (s *Subscription) finish() {
	s.binding = false
	if s.live <= 0 {
		s.close()
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
