// Package tracing records reactive notifications as OpenTelemetry spans.
//
// Every Dep notification becomes a span covering the subscriber fan-out.
// Notifications triggered by a subscriber's update become child spans, so a
// trace shows how one write propagated. Observers created and warnings
// reported during a notification are recorded as span events.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in main() before installing the hooks:
//
//	otel.SetTracerProvider(tp)
//	observer.SetHooks(tracing.New(tracing.WithTracerName("my-app")))
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/observer"
)

// Default tracer name.
const defaultTracerName = "observer"

// Span and event names.
const (
	SpanNotify   = "observer.notify"
	SpanWarning  = "observer.warning"
	EventCreated = "observer.created"
	EventWarning = "observer.warning"
)

// Config configures the tracing hooks.
type Config struct {
	// TracerName is the name of the tracer (default: "observer").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Context is the parent of top-level spans. Default: context.Background().
	Context context.Context
}

// Option configures the tracing hooks.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithContext sets the parent context of top-level spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// frame is one in-flight notification.
type frame struct {
	ctx  context.Context
	span trace.Span
}

// Tracer implements observer.Hooks.
type Tracer struct {
	tracer trace.Tracer
	root   context.Context

	mu    sync.Mutex
	stack []frame
}

// New creates tracing hooks.
func New(opts ...Option) *Tracer {
	config := Config{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}

	return &Tracer{
		tracer: config.Provider.Tracer(config.TracerName),
		root:   config.Context,
	}
}

// current returns the innermost in-flight notification.
func (t *Tracer) current() (frame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.stack); n > 0 {
		return t.stack[n-1], true
	}
	return frame{}, false
}

// ObserverCreated implements observer.Hooks.
func (t *Tracer) ObserverCreated(ob *observer.Observer) {
	if f, ok := t.current(); ok {
		f.span.AddEvent(EventCreated, trace.WithAttributes(
			attribute.String("observer.kind", ob.Kind()),
		))
	}
}

// Notified implements observer.Hooks.
func (t *Tracer) Notified(d *observer.Dep, subscribers int) {
	parent := t.root
	if f, ok := t.current(); ok {
		parent = f.ctx
	}

	ctx, span := t.tracer.Start(parent, SpanNotify,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("observer.dep_id", int64(d.ID())),
			attribute.Int("observer.subscribers", subscribers),
		),
	)

	t.mu.Lock()
	t.stack = append(t.stack, frame{ctx: ctx, span: span})
	t.mu.Unlock()
}

// NotifyDone implements observer.Hooks.
func (t *Tracer) NotifyDone(*observer.Dep) {
	t.mu.Lock()
	n := len(t.stack)
	if n == 0 {
		t.mu.Unlock()
		return
	}
	f := t.stack[n-1]
	t.stack[n-1] = frame{}
	t.stack = t.stack[:n-1]
	t.mu.Unlock()

	f.span.SetStatus(codes.Ok, "")
	f.span.End()
}

// Warned implements observer.Hooks. Inside a notification the warning is an
// event on its span; otherwise it gets a span of its own.
func (t *Tracer) Warned(err error) {
	attrs := []attribute.KeyValue{
		attribute.String("observer.code", errors.Code(err)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("observer.message", err.Error()))
	}

	if f, ok := t.current(); ok {
		f.span.AddEvent(EventWarning, trace.WithAttributes(attrs...))
		return
	}

	_, span := t.tracer.Start(t.root, SpanWarning, trace.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Code(err))
	}
	span.End()
}

var _ observer.Hooks = (*Tracer)(nil)
