// Package tracing installs an OpenTelemetry tracer provider for a run and
// wraps pipeline steps in spans. With the "none" exporter the global no-op
// provider stays in place and Start is free.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used for pipeline spans.
const InstrumentationName = "evstar"

// Config selects the exporter.
type Config struct {
	Exporter    string // none or stdout
	SampleRatio float64
	Job         string
	RunID       string
}

// Setup installs a global tracer provider writing spans to w and returns its
// shutdown func, which flushes pending spans.
func Setup(cfg Config, w io.Writer) (func(context.Context) error, error) {
	switch cfg.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}
	tp := NewProvider(cfg, sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider with the run's resource attributes and
// sampler; opts add span processors.
func NewProvider(cfg Config, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", InstrumentationName),
		attribute.String("evstar.job", cfg.Job),
		attribute.String("evstar.run_id", cfg.RunID),
	)
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

// Start opens a span named "evstar.<step>" on the global provider.
func Start(ctx context.Context, step string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, InstrumentationName+"."+step, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
