package arrive

import (
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/pkg/dom"
	"github.com/vango-dev/arrive/pkg/loop"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	clock  *loop.ManualClock
	loop   *loop.Loop
	doc    *dom.Document
	engine *Engine
}

func newFixture(t *testing.T, body string, opts ...EngineOption) *fixture {
	t.Helper()
	clock := loop.NewManualClock(epoch)
	l := loop.New(loop.WithClock(clock))
	doc, err := dom.ParseString(l, "<html><head></head><body>"+body+"</body></html>")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		t:      t,
		clock:  clock,
		loop:   l,
		doc:    doc,
		engine: New(DocumentHost(doc), opts...),
	}
}

func (f *fixture) query(sel string) *html.Node {
	f.t.Helper()
	n, err := f.doc.Query(sel)
	if err != nil {
		f.t.Fatal(err)
	}
	if n == nil {
		f.t.Fatalf("no node matches %q", sel)
	}
	return n
}

func (f *fixture) drain() {
	f.loop.Drain()
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.loop.Drain()
}

// recorder collects handler invocations.
type recorder struct {
	got []*html.Node
	h   *Handler
}

func newRecorder() *recorder {
	r := &recorder{}
	r.h = NewHandler(func(n *html.Node) {
		r.got = append(r.got, n)
	})
	return r
}

// ids returns the id attribute of each node, or "<nil>" for a timeout.
func (r *recorder) ids() []string {
	return ids(r.got)
}

func ids(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			out = append(out, "<nil>")
			continue
		}
		id, _ := dom.GetAttribute(n, "id")
		out = append(out, id)
	}
	return out
}

func item(id string) *html.Node {
	return dom.Element("p", dom.ID(id), dom.Class("x"))
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
