package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "msindex"

// Tracer is resolved from the global provider, so spans become real once
// InitTracing installs an exporter and stay no-ops otherwise.
var Tracer trace.Tracer = otel.Tracer(tracerName)

// InitTracing installs an OTLP/gRPC exporter when endpoint is set. The
// returned shutdown flushes pending spans; it is safe to call when tracing
// is disabled.
func InitTracing(ctx context.Context, endpoint, serviceVersion string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter for %s: %w", endpoint, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(tracerName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(tracerName)
	slog.Info("tracing enabled", "endpoint", endpoint)

	return provider.Shutdown, nil
}
