// Package observability wires tracing, metrics and logging around the
// request layer and the page store.
package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName identifies spans produced by this module.
const InstrumentationName = "github.com/clusterwiki"

// TracingConfig selects the span exporter. An empty Endpoint disables tracing.
type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// Tracing is the process wide tracer setup. It is created once by
// InitTracing and never reconfigured.
type Tracing struct {
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

var (
	tracingOnce sync.Once
	tracing     *Tracing
	tracingErr  error
)

// InitTracing configures tracing on first use and returns the same value on
// every later call, whatever configuration is passed.
func InitTracing(ctx context.Context, cfg TracingConfig) (*Tracing, error) {
	tracingOnce.Do(func() {
		tracing, tracingErr = newTracing(ctx, cfg)
	})
	return tracing, tracingErr
}

// NewTracingFromProvider wraps an existing provider. Used by tests and by
// callers that manage their own SDK.
func NewTracingFromProvider(provider trace.TracerProvider) *Tracing {
	return &Tracing{
		provider: provider,
		tracer:   provider.Tracer(InstrumentationName),
		enabled:  true,
	}
}

func newTracing(ctx context.Context, cfg TracingConfig) (*Tracing, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		provider := noop.NewTracerProvider()
		return &Tracing{provider: provider, tracer: provider.Tracer(InstrumentationName)}, nil
	}

	opts := []otlptracehttp.Option{}
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "clusterwiki"
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Tracing{
		provider: provider,
		sdk:      provider,
		tracer:   provider.Tracer(InstrumentationName),
		enabled:  true,
	}, nil
}

// Enabled reports whether spans are exported anywhere.
func (t *Tracing) Enabled() bool {
	return t != nil && t.enabled
}

// Tracer returns the tracer used for request and storage spans.
func (t *Tracing) Tracer() trace.Tracer {
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return t.tracer
}

// Shutdown flushes pending spans. It is a no-op when tracing is disabled.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
