package arrive

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/net/html"
)

func TestSubscriptionNext(t *testing.T) {
	f := newFixture(t, ``)
	ctx := context.Background()

	sub, err := f.engine.Arrive(f.doc.Root(), "p.x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Kind() != KindArrive || sub.Handler() == nil {
		t.Fatalf("Kind() = %v, Handler() = %v", sub.Kind(), sub.Handler())
	}

	f.doc.AppendChildren(f.doc.Body(), item("a"), item("b"))
	f.drain()

	var got []*html.Node
	for range 2 {
		n, err := sub.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, n)
	}
	if want := []string{"a", "b"}; !equal(ids(got), want) {
		t.Errorf("Next() yielded %v, want %v", ids(got), want)
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := sub.Next(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() on empty queue error = %v, want deadline exceeded", err)
	}

	if !sub.Active() {
		t.Error("Active() = false before Cancel")
	}
	sub.Cancel()
	sub.Cancel()
	if sub.Active() {
		t.Error("Active() = true after Cancel")
	}
	if _, err := sub.Next(ctx); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("Next() after Cancel error = %v, want ErrSubscriptionClosed", err)
	}
	if got := f.engine.Stats().Arrive; got != 0 {
		t.Errorf("Stats().Arrive = %d after Cancel", got)
	}
}

func TestSubscriptionDrainsBeforeClosing(t *testing.T) {
	f := newFixture(t, ``)
	ctx := context.Background()

	sub, err := f.engine.Leave(f.doc.Root(), "p.x", nil, OnceOnly())
	if err != nil {
		t.Fatal(err)
	}
	f.doc.AppendChild(f.doc.Body(), item("a"))
	f.drain()
	f.doc.Remove(f.query("#a"))
	f.drain()

	select {
	case <-sub.Done():
	default:
		t.Fatal("onceOnly subscription still open after firing")
	}

	n, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v, want the queued element", err)
	}
	if want := []string{"a"}; !equal(ids([]*html.Node{n}), want) {
		t.Errorf("Next() = %v, want %v", ids([]*html.Node{n}), want)
	}
	if _, err := sub.Next(ctx); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("Next() error = %v, want ErrSubscriptionClosed", err)
	}
}

func TestSubscriptionOnceOnlyExisting(t *testing.T) {
	f := newFixture(t, `<p class="x" id="a"></p><p class="x" id="b"></p>`)

	sub, err := f.engine.Arrive(f.doc.Root(), "p.x", nil, OnceOnly(), Existing())
	if err != nil {
		t.Fatal(err)
	}
	n, err := sub.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a"}; !equal(ids([]*html.Node{n}), want) {
		t.Errorf("Next() = %v, want %v", ids([]*html.Node{n}), want)
	}
	if _, err := sub.Next(context.Background()); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("Next() error = %v, want ErrSubscriptionClosed", err)
	}
}

func TestSubscriptionUnbindClosesIt(t *testing.T) {
	f := newFixture(t, ``)
	rec := newRecorder()

	sub, err := f.engine.Arrive(f.doc.Root(), "p.x", rec.h)
	if err != nil {
		t.Fatal(err)
	}
	f.engine.UnbindArrive(f.doc.Root(), BySelector("p.x"))

	select {
	case <-sub.Done():
	default:
		t.Error("subscription still open after its registration was unbound")
	}
}

// runLoop serves f's loop on another goroutine until the test ends.
func runLoop(t *testing.T, f *fixture) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

// waitFor polls cond on the loop until it holds.
func waitFor(t *testing.T, f *fixture, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var ok bool
		if err := f.loop.Do(context.Background(), func() { ok = cond() }); err != nil {
			t.Fatal(err)
		}
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type awaitResult struct {
	node *html.Node
	err  error
}

func TestAwaitArrive(t *testing.T) {
	f := newFixture(t, ``)
	runLoop(t, f)

	results := make(chan awaitResult, 1)
	go func() {
		n, err := f.engine.AwaitArrive(context.Background(), f.doc.Root(), "p.x")
		results <- awaitResult{n, err}
	}()

	waitFor(t, f, func() bool { return f.engine.Stats().Arrive == 1 })
	if err := f.loop.Do(context.Background(), func() {
		f.doc.AppendChildren(f.doc.Body(), item("a"), item("b"))
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if want := []string{"a"}; !equal(ids([]*html.Node{r.node}), want) {
			t.Errorf("AwaitArrive() = %v, want %v", ids([]*html.Node{r.node}), want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("AwaitArrive() did not resolve")
	}
	waitFor(t, f, func() bool { return f.engine.Stats().Arrive == 0 })
}

func TestAwaitLeaveTimeout(t *testing.T) {
	f := newFixture(t, `<p class="x" id="a"></p>`)
	runLoop(t, f)

	results := make(chan awaitResult, 1)
	go func() {
		n, err := f.engine.AwaitLeave(context.Background(), f.doc.Root(), "p.x", Timeout(time.Second))
		results <- awaitResult{n, err}
	}()

	waitFor(t, f, func() bool { return f.engine.Stats().Leave == 1 })
	f.clock.Advance(time.Second)

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if r.node != nil {
			t.Errorf("AwaitLeave() = %v, want nil on timeout", r.node)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("AwaitLeave() did not resolve")
	}
}

func TestAwaitCancelled(t *testing.T) {
	f := newFixture(t, ``)
	runLoop(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan awaitResult, 1)
	go func() {
		n, err := f.engine.AwaitArrive(ctx, f.doc.Root(), "p.x")
		results <- awaitResult{n, err}
	}()

	waitFor(t, f, func() bool { return f.engine.Stats().Arrive == 1 })
	cancel()

	select {
	case r := <-results:
		if !errors.Is(r.err, context.Canceled) {
			t.Errorf("AwaitArrive() error = %v, want context.Canceled", r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("AwaitArrive() did not return after cancel")
	}
	waitFor(t, f, func() bool { return f.engine.Stats().Arrive == 0 })
}
