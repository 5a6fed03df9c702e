package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/pkg/arrive"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestReplay(t *testing.T) {
	sc := mustParse(t, listScenario)

	var streamed []Event
	events, err := NewReplayer(WithSink(func(e Event) { streamed = append(streamed, e) })).
		Replay(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}

	want := []Event{
		{Seq: 1, At: 0, Registration: "items", Kind: "arrive", Node: `<li class="item" id="a">first</li>`, Step: 0},
		{Seq: 2, At: 0, Registration: "items", Kind: "arrive", Node: `<li class="item" id="b">second</li>`, Step: 1},
		{Seq: 3, At: 100 * time.Millisecond, Registration: "gone", Kind: "leave", Node: `<li class="item" id="a">first</li>`, Step: 3},
		{Seq: 4, At: 300 * time.Millisecond, Registration: "items", Kind: "arrive", Timeout: true, Step: 4},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %+v, want %d events", events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
	if len(streamed) != len(events) {
		t.Errorf("sink got %d events, want %d", len(streamed), len(events))
	}
}

func TestReplayOnceOnlyDefaults(t *testing.T) {
	sc := mustParse(t, `
document: <div id="root"></div>
registrations:
  - {name: first, selector: p}
steps:
  - append: {parent: "#root", html: "<p id=one></p><p id=two></p>"}
`)
	events, err := NewReplayer(WithDefaults(arrive.Defaults{Arrive: arrive.Options{OnceOnly: true}})).
		Replay(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Node != `<p id="one"></p>` {
		t.Errorf("events = %+v, want only the first paragraph", events)
	}
}

func TestReplayAttributes(t *testing.T) {
	sc := mustParse(t, `
document: <p id="a"></p>
registrations:
  - name: on
    selector: p.on
    options: {attributeFilter: [class]}
steps:
  - setAttr: {target: "#a", name: title, value: x}
  - setAttr: {target: "#a", name: class, value: on}
  - removeAttr: {target: "#a", name: class}
`)
	events, err := NewReplayer().Replay(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Step != 2 {
		t.Errorf("events = %+v, want one event from step 2", events)
	}
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "missing node",
			src:  "document: <p></p>\nsteps:\n  - remove: \"#nope\"\n",
			code: "A202",
		},
		{
			name: "missing target",
			src:  "document: <p></p>\nregistrations:\n  - {name: r, target: \"#nope\", selector: p}\n",
			code: "A202",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReplayer().Replay(context.Background(), mustParse(t, tt.src))
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Replay() error = %v, want %s", err, tt.code)
			}
		})
	}

	t.Run("invalid selector", func(t *testing.T) {
		sc := mustParse(t, "document: <p></p>\nregistrations:\n  - {name: r, selector: \"p[\"}\n")
		if _, err := NewReplayer().Replay(context.Background(), sc); err == nil {
			t.Error("expected selector error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewReplayer().Replay(ctx, mustParse(t, listScenario)); err != context.Canceled {
			t.Errorf("Replay() error = %v, want context.Canceled", err)
		}
	})
}

func TestReplayWithMetricsTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewReplayer(WithMetrics(reg, arrive.WithNamespace("replay")))
	sc := mustParse(t, listScenario)

	for range 2 {
		if _, err := r.Replay(context.Background(), sc); err != nil {
			t.Fatal(err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "replay_handler_invocations_total" {
			found = true
		}
	}
	if !found {
		t.Error("replay_handler_invocations_total not registered")
	}
}
