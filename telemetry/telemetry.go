package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Setting struct {
	Tracing TracingSetting `yaml:"tracing"`
}

type TracingSetting struct {
	Enable bool `yaml:"enable"`
	// Endpoint is the OTLP/HTTP collector host:port. Empty uses the exporter's
	// environment defaults.
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting over OTLP/HTTP. When tracing is
// disabled it only installs the propagator and returns a no-op shutdown.
func Setup(ctx context.Context, serviceName string, setting Setting) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !setting.Tracing.Enable {
		return func(context.Context) error { return nil }, nil
	}

	var opts []otlptracehttp.Option
	if setting.Tracing.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(setting.Tracing.Endpoint))
	}
	if setting.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
