package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// InitTracer installs a stdout span exporter as the global tracer provider.
// Spans are written to out, or stderr when out is nil. Exporter failures are
// logged and leave tracing disabled.
func InitTracer(ctx context.Context, serviceName string, out io.Writer, logger zerolog.Logger) func(context.Context) error {
	if out == nil {
		out = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry exporter init failed")
		return func(context.Context) error { return nil }
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)

	otel.SetTracerProvider(provider)
	logger.Debug().Str("service", serviceName).Msg("tracer provider installed")

	return provider.Shutdown
}
