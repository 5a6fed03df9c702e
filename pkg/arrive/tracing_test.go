package arrive

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanRecorder(t *testing.T) (*tracetest.SpanRecorder, EngineOption) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, WithTracer(tp.Tracer("arrive-test"))
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	sr, opt := newSpanRecorder(t)
	f := newFixture(t, ``, opt)
	rec := newRecorder()

	if _, err := f.engine.Arrive(f.doc.Root(), "p.x", rec.h); err != nil {
		t.Fatal(err)
	}
	f.doc.AppendChild(f.doc.Body(), item("a"))
	f.doc.AppendChild(f.doc.Body(), item("b"))
	f.drain()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}

	bind, dispatch := spans[0], spans[1]
	if bind.Name() != "arrive.bind" {
		t.Errorf("spans[0].Name() = %q, want arrive.bind", bind.Name())
	}
	if v, _ := spanAttr(bind, "arrive.selector"); v.AsString() != "p.x" {
		t.Errorf("bind selector = %q, want p.x", v.AsString())
	}
	if v, _ := spanAttr(bind, "arrive.kind"); v.AsString() != "arrive" {
		t.Errorf("bind kind = %q, want arrive", v.AsString())
	}

	if dispatch.Name() != "arrive.dispatch" {
		t.Errorf("spans[1].Name() = %q, want arrive.dispatch", dispatch.Name())
	}
	if v, _ := spanAttr(dispatch, "arrive.records"); v.AsInt64() != 2 {
		t.Errorf("dispatch records = %d, want 2", v.AsInt64())
	}
	if v, _ := spanAttr(dispatch, "arrive.matches"); v.AsInt64() != 2 {
		t.Errorf("dispatch matches = %d, want 2", v.AsInt64())
	}
}

func TestTracingBindError(t *testing.T) {
	sr, opt := newSpanRecorder(t)
	f := newFixture(t, ``, opt)

	if _, err := f.engine.Arrive(f.doc.Root(), "p[", nil); err == nil {
		t.Fatal("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].Status().Code; got != codes.Error {
		t.Errorf("status = %v, want Error", got)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("bind error was not recorded on the span")
	}
}
