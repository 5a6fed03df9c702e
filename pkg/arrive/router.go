package arrive

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/pkg/dom"
)

func (e *Engine) bind(k Kind, targets []*html.Node, selector string, h *Handler, opts []Option) (*Subscription, error) {
	_, span := e.tracer.Start(context.Background(), "arrive.bind",
		trace.WithAttributes(
			attribute.String("arrive.kind", k.String()),
			attribute.String("arrive.selector", selector),
			attribute.Int("arrive.targets", len(targets)),
		),
	)
	defer span.End()

	sub, err := e.bindTargets(k, targets, selector, h, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return sub, nil
}

func (e *Engine) bindTargets(k Kind, targets []*html.Node, selector string, h *Handler, opts []Option) (*Subscription, error) {
	o, err := resolve(k, e.defaults, opts)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t == nil {
			return nil, errors.New("A001")
		}
	}
	sel, err := e.matcher.Compile(selector)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(e, k, h)
	defer sub.finish()

	if e.host == nil {
		e.warnUnsupported()
		return sub, nil
	}

	b := e.bucket(k)
	for _, t := range targets {
		r := newRegistration(k, t, selector, sel, o, sub.handler, sub)
		if err := b.add(r); err != nil {
			sub.Cancel()
			return nil, err
		}
		sub.track(r)
		e.metrics.registrationAdded(k)
		e.logger.Debug("bind", "kind", k, "selector", selector, "once", o.OnceOnly, "existing", o.Existing, "timeout", o.Timeout)

		e.armTimer(r)
		if k == KindArrive && o.Existing {
			e.scanExisting(r)
		}
	}
	return sub, nil
}

// attach creates and starts the registration's observer. It runs before
// the registration becomes visible in its bucket.
func (e *Engine) attach(r *registration) error {
	obs := e.host.NewObserver(func(records []dom.MutationRecord) {
		e.onMutations(r, records)
	})
	if obs == nil {
		return errors.New("A002")
	}
	if err := obs.Observe(r.observed, r.observeOptions()); err != nil {
		return errors.New("A004").Wrap(err)
	}
	r.observer = obs
	return nil
}

// release tears down a registration leaving its bucket.
func (e *Engine) release(r *registration) {
	if r.observer != nil {
		r.observer.Disconnect()
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	e.metrics.registrationRemoved(r.kind)
	if r.sub != nil {
		r.sub.released(r)
	}
}

// onMutations handles one batch of records for r. Records the host had
// already queued before r was removed are ignored.
func (e *Engine) onMutations(r *registration, records []dom.MutationRecord) {
	if !e.bucket(r.kind).contains(r) {
		return
	}

	start := time.Now()
	_, span := e.tracer.Start(context.Background(), "arrive.dispatch",
		trace.WithAttributes(
			attribute.String("arrive.kind", r.kind.String()),
			attribute.String("arrive.selector", r.selector),
			attribute.Int("arrive.records", len(records)),
		),
	)
	defer span.End()

	// Leave registrations only de-duplicate within a batch: an element can
	// leave, come back and leave again.
	seen := r.fired
	if r.kind == KindLeave {
		seen = make(map[*html.Node]struct{})
	}

	var batch []pending
	for _, rec := range records {
		switch rec.Type {
		case dom.ChildList:
			if r.kind == KindArrive {
				batch = e.walk(r, rec.AddedNodes, seen, causeMatch, batch)
			} else {
				batch = e.walk(r, rec.RemovedNodes, seen, causeMatch, batch)
			}
		case dom.Attributes:
			if r.kind == KindArrive && r.opts.FireOnAttributesModification {
				batch = e.checkNode(r, rec.Target, seen, causeAttribute, batch)
			}
		}
	}

	span.SetAttributes(attribute.Int("arrive.matches", len(batch)))
	e.metrics.batchHandled(r.kind, time.Since(start))
	e.dispatch(batch)
}
