package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

const tracerName = "zabbix-wsus-go"

// DebugWriter receives pretty-printed spans in verbose mode. Stdout is
// reserved for the value Zabbix reads, so spans go to stderr.
var DebugWriter io.Writer = os.Stderr

// Init initialises OpenTelemetry tracing. When disabled it installs a noop
// provider so all span calls are zero-cost. Returns a shutdown function that
// must be called to flush any buffered spans.
func Init(ctx context.Context, cfg *config.TelemetryConfig, verbose bool) (shutdown func(context.Context) error, err error) {
	noopShutdown := func(context.Context) error { return nil }
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(tracerName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTel resource: %w", err)
	}

	var exporter sdktrace.SpanExporter

	switch {
	case cfg.OTLPEndpoint != "":
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case verbose:
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(DebugWriter),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create debug exporter: %w", err)
		}
	default:
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}

	// One query per process: export spans as they end.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the application tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
