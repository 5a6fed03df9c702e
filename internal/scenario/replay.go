package scenario

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/pkg/arrive"
	"github.com/vango-dev/arrive/pkg/dom"
	"github.com/vango-dev/arrive/pkg/loop"
)

// Epoch is the manual clock's start time during replay.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Event is one handler invocation observed during replay.
type Event struct {
	// Seq numbers events from 1 in firing order.
	Seq int `json:"seq"`

	// At is the manual clock offset from the start of the replay.
	At time.Duration `json:"at"`

	Registration string `json:"registration"`
	Kind         string `json:"kind"`

	// Node is the matched element's outer HTML. Empty on timeout.
	Node string `json:"node,omitempty"`

	Timeout bool `json:"timeout,omitempty"`

	// Step is the 1-based index of the step that caused the event; 0 means
	// the event fired while binding.
	Step int `json:"step"`
}

// Replayer runs scenarios.
type Replayer struct {
	logger   *slog.Logger
	defaults arrive.Defaults
	reg      prometheus.Registerer
	metrics  []arrive.MetricsOption
	sink     func(Event)
}

// ReplayOption configures a Replayer.
type ReplayOption func(*Replayer)

// WithLogger sets the logger handed to the loop and engine.
func WithLogger(logger *slog.Logger) ReplayOption {
	return func(r *Replayer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaults sets the engine defaults.
func WithDefaults(d arrive.Defaults) ReplayOption {
	return func(r *Replayer) {
		r.defaults = d
	}
}

// WithMetrics records engine metrics in reg.
func WithMetrics(reg prometheus.Registerer, opts ...arrive.MetricsOption) ReplayOption {
	return func(r *Replayer) {
		r.reg = reg
		r.metrics = opts
	}
}

// WithSink receives every event as it fires, in addition to the returned
// log.
func WithSink(fn func(Event)) ReplayOption {
	return func(r *Replayer) {
		r.sink = fn
	}
}

// NewReplayer creates a Replayer.
func NewReplayer(opts ...ReplayOption) *Replayer {
	r := &Replayer{
		logger:   slog.Default(),
		defaults: arrive.DefaultDefaults(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// replay is the state of one run.
type replay struct {
	*Replayer
	clock  *loop.ManualClock
	loop   *loop.Loop
	doc    *dom.Document
	engine *arrive.Engine
	subs   map[string]*arrive.Subscription
	events []Event
	step   int
}

// Replay runs sc and returns the events in firing order. ctx is checked
// between steps.
func (r *Replayer) Replay(ctx context.Context, sc *Scenario) ([]Event, error) {
	clock := loop.NewManualClock(Epoch)
	l := loop.New(loop.WithClock(clock), loop.WithLogger(r.logger))
	doc, err := dom.ParseString(l, sc.Document)
	if err != nil {
		return nil, errors.New("A200").WithDetail("document").Wrap(err)
	}

	engineOpts := []arrive.EngineOption{
		arrive.WithLogger(r.logger),
		arrive.WithDefaults(r.defaults),
	}
	if r.reg != nil {
		engineOpts = append(engineOpts, arrive.WithMetrics(r.reg, r.metrics...))
	}

	run := &replay{
		Replayer: r,
		clock:    clock,
		loop:     l,
		doc:      doc,
		engine:   arrive.New(arrive.DocumentHost(doc), engineOpts...),
		subs:     make(map[string]*arrive.Subscription, len(sc.Registrations)),
	}
	defer func() {
		run.engine.UnbindAllArrive()
		run.engine.UnbindAllLeave()
	}()

	for _, reg := range sc.Registrations {
		if err := run.bind(reg); err != nil {
			return run.events, err
		}
	}
	l.Drain()

	for i, s := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return run.events, err
		}
		run.step = i + 1
		if err := run.apply(s); err != nil {
			return run.events, err
		}
		l.Drain()
	}

	r.logger.Debug("replay finished", "scenario", sc.Name, "steps", len(sc.Steps), "events", len(run.events))
	return run.events, nil
}

func (run *replay) bind(reg Registration) error {
	target := run.doc.Root()
	if reg.Target != "" && reg.Target != "document" {
		n, err := run.query(reg.Target, reg.Line)
		if err != nil {
			return err
		}
		target = n
	}

	kind, _ := reg.kind()
	h := arrive.NewHandler(func(n *html.Node) {
		run.emit(reg.Name, kind, n)
	})

	var (
		sub *arrive.Subscription
		err error
	)
	if kind == arrive.KindLeave {
		sub, err = run.engine.Leave(target, reg.Selector, h, reg.Options.BindOptions()...)
	} else {
		sub, err = run.engine.Arrive(target, reg.Selector, h, reg.Options.BindOptions()...)
	}
	if err != nil {
		return errors.FromError(err, "A200").WithLocation("", reg.Line, 0)
	}
	run.subs[reg.Name] = sub
	return nil
}

func (run *replay) apply(s Step) error {
	switch s.Op() {
	case OpAppend:
		parent, err := run.query(s.Append.Parent, s.Line)
		if err != nil {
			return err
		}
		nodes, err := dom.Fragment(s.Append.HTML)
		if err != nil {
			return errors.New("A200").WithLocation("", s.Line, 0).Wrap(err)
		}
		run.doc.AppendChildren(parent, nodes...)
	case OpRemove:
		n, err := run.query(s.Remove, s.Line)
		if err != nil {
			return err
		}
		run.doc.Remove(n)
	case OpSetAttr:
		n, err := run.query(s.SetAttr.Target, s.Line)
		if err != nil {
			return err
		}
		run.doc.SetAttribute(n, s.SetAttr.Name, s.SetAttr.Value)
	case OpRemoveAttr:
		n, err := run.query(s.RemoveAttr.Target, s.Line)
		if err != nil {
			return err
		}
		run.doc.RemoveAttribute(n, s.RemoveAttr.Name)
	case OpAdvance:
		run.advance(time.Duration(s.Advance))
	case OpUnbind:
		if sub := run.subs[s.Unbind]; sub != nil {
			sub.Cancel()
		}
	}
	return nil
}

// advance moves the clock forward by d, stopping at every timer deadline
// on the way so expiries are handled at the time they fall due.
func (run *replay) advance(d time.Duration) {
	for {
		next, ok := run.clock.Until()
		if !ok || next > d {
			break
		}
		run.clock.Advance(next)
		run.loop.Drain()
		d -= next
	}
	run.clock.Advance(d)
}

func (run *replay) query(selector string, line int) (*html.Node, error) {
	if selector == "" || selector == "body" {
		if b := run.doc.Body(); b != nil {
			return b, nil
		}
	}
	n, err := run.doc.Query(selector)
	if err != nil {
		return nil, errors.New("A200").WithLocation("", line, 0).Wrap(err)
	}
	if n == nil {
		return nil, errors.New("A202").
			WithDetail(selector).
			WithLocation("", line, 0)
	}
	return n, nil
}

func (run *replay) emit(name string, kind arrive.Kind, n *html.Node) {
	ev := Event{
		Seq:          len(run.events) + 1,
		At:           run.clock.Now().Sub(Epoch),
		Registration: name,
		Kind:         kind.String(),
		Step:         run.step,
	}
	if n == nil {
		ev.Timeout = true
	} else {
		ev.Node = dom.OuterHTML(n)
	}
	run.events = append(run.events, ev)
	if run.sink != nil {
		run.sink(ev)
	}
}
