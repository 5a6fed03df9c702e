package arrive

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/internal/errors"
)

// tracerName is the instrumentation scope for spans created by the engine.
const tracerName = "github.com/vango-dev/arrive"

// Engine owns the arrive and leave registration stores.
type Engine struct {
	host     Host
	matcher  Matcher
	defaults Defaults
	arrive   *bucket
	leave    *bucket

	logger   *slog.Logger
	metrics  *metrics
	tracer   trace.Tracer
	warnOnce sync.Once
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMatcher replaces the cascadia selector matcher.
func WithMatcher(m Matcher) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// WithDefaults sets the options each bind starts from.
func WithDefaults(d Defaults) EngineOption {
	return func(e *Engine) {
		e.defaults = d
	}
}

// WithTracer sets the OpenTelemetry tracer. Default: the global provider's
// tracer.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMetrics registers Prometheus metrics with reg, or the default
// registerer if reg is nil. Engines given the same registerer share their
// collectors.
func WithMetrics(reg prometheus.Registerer, opts ...MetricsOption) EngineOption {
	return func(e *Engine) {
		config := defaultMetricsConfig()
		for _, opt := range opts {
			opt(&config)
		}
		e.metrics = metricsFor(reg, config)
	}
}

// New creates an Engine on host. A nil host yields an engine on which
// every bind succeeds but never fires.
func New(host Host, opts ...EngineOption) *Engine {
	e := &Engine{
		host:     host,
		matcher:  CascadiaMatcher(),
		defaults: DefaultDefaults(),
		arrive:   newBucket(KindArrive),
		leave:    newBucket(KindLeave),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, b := range []*bucket{e.arrive, e.leave} {
		b.beforeAdding = e.attach
		b.beforeRemoving = e.release
	}
	return e
}

// Supported reports whether the host can observe mutations.
func (e *Engine) Supported() bool {
	return e.host != nil
}

// Arrive fires h for every element matching selector that is added under
// target. With a nil h the returned Subscription yields matches from Next.
// A document target is observed through its <body>, so elements in <head>
// never match.
func (e *Engine) Arrive(target *html.Node, selector string, h *Handler, opts ...Option) (*Subscription, error) {
	return e.bind(KindArrive, []*html.Node{target}, selector, h, opts)
}

// ArriveEach binds one arrive registration per target.
func (e *Engine) ArriveEach(targets []*html.Node, selector string, h *Handler, opts ...Option) (*Subscription, error) {
	return e.bind(KindArrive, targets, selector, h, opts)
}

// Leave fires h for every element matching selector that is removed from
// under target.
func (e *Engine) Leave(target *html.Node, selector string, h *Handler, opts ...Option) (*Subscription, error) {
	return e.bind(KindLeave, []*html.Node{target}, selector, h, opts)
}

// LeaveEach binds one leave registration per target.
func (e *Engine) LeaveEach(targets []*html.Node, selector string, h *Handler, opts ...Option) (*Subscription, error) {
	return e.bind(KindLeave, targets, selector, h, opts)
}

// UnbindArrive removes the arrive registrations on target selected by f
// and returns how many were removed.
func (e *Engine) UnbindArrive(target *html.Node, f Filter) int {
	return e.unbind(KindArrive, []*html.Node{target}, f)
}

// UnbindArriveEach is UnbindArrive over several targets.
func (e *Engine) UnbindArriveEach(targets []*html.Node, f Filter) int {
	return e.unbind(KindArrive, targets, f)
}

// UnbindLeave removes the leave registrations on target selected by f.
func (e *Engine) UnbindLeave(target *html.Node, f Filter) int {
	return e.unbind(KindLeave, []*html.Node{target}, f)
}

// UnbindLeaveEach is UnbindLeave over several targets.
func (e *Engine) UnbindLeaveEach(targets []*html.Node, f Filter) int {
	return e.unbind(KindLeave, targets, f)
}

// UnbindAllArrive removes every arrive registration.
func (e *Engine) UnbindAllArrive() int {
	return e.unbindAll(KindArrive)
}

// UnbindAllLeave removes every leave registration.
func (e *Engine) UnbindAllLeave() int {
	return e.unbindAll(KindLeave)
}

// AwaitArrive binds a once-only arrive registration and waits for it. It
// returns the matched element, or nil if the timeout elapsed first. The
// host's loop must be running on another goroutine.
func (e *Engine) AwaitArrive(ctx context.Context, target *html.Node, selector string, opts ...Option) (*html.Node, error) {
	return e.await(ctx, KindArrive, target, selector, opts)
}

// AwaitLeave is AwaitArrive for leave.
func (e *Engine) AwaitLeave(ctx context.Context, target *html.Node, selector string, opts ...Option) (*html.Node, error) {
	return e.await(ctx, KindLeave, target, selector, opts)
}

// Stats counts live registrations.
type Stats struct {
	Arrive int
	Leave  int
}

// Stats returns the number of live registrations per kind.
func (e *Engine) Stats() Stats {
	return Stats{Arrive: e.arrive.len(), Leave: e.leave.len()}
}

func (e *Engine) bucket(k Kind) *bucket {
	if k == KindLeave {
		return e.leave
	}
	return e.arrive
}

func (e *Engine) unbind(k Kind, targets []*html.Node, f Filter) int {
	set := make(map[*html.Node]struct{}, len(targets))
	for _, t := range targets {
		if t != nil {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return 0
	}
	removed := e.bucket(k).removeWhere(func(r *registration) bool {
		_, ok := set[r.target]
		return ok && f.matches(r)
	})
	if len(removed) > 0 {
		e.logger.Debug("unbind", "kind", k, "filter", f, "removed", len(removed))
	}
	return len(removed)
}

func (e *Engine) unbindAll(k Kind) int {
	removed := e.bucket(k).removeWhere(func(*registration) bool { return true })
	if len(removed) > 0 {
		e.logger.Debug("unbind all", "kind", k, "removed", len(removed))
	}
	return len(removed)
}

// unbindBinding removes every registration bound with r's target,
// selector and handler.
func (e *Engine) unbindBinding(r *registration) {
	e.bucket(r.kind).removeWhere(r.sameBinding)
}

func (e *Engine) await(ctx context.Context, k Kind, target *html.Node, selector string, opts []Option) (*html.Node, error) {
	if e.host == nil {
		e.warnUnsupported()
		return nil, errors.New("A002")
	}
	opts = append(slices.Clip(opts), OnceOnly())

	var (
		sub     *Subscription
		bindErr error
	)
	err := e.host.Do(ctx, func() {
		sub, bindErr = e.bind(k, []*html.Node{target}, selector, nil, opts)
	})
	if err != nil {
		return nil, err
	}
	if bindErr != nil {
		return nil, bindErr
	}

	n, err := sub.Next(ctx)
	if err != nil {
		_ = e.host.Do(context.WithoutCancel(ctx), sub.Cancel)
		return nil, err
	}
	return n, nil
}

func (e *Engine) warnUnsupported() {
	e.warnOnce.Do(func() {
		e.logger.Warn("mutation observation unavailable; arrive and leave are no-ops")
	})
}
