package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

func TestInit_Disabled(t *testing.T) {
	cfg := &config.TelemetryConfig{Enabled: false}

	shutdown, err := Init(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	tp := otel.GetTracerProvider()
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop.TracerProvider, got %T", tp)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInit_EnabledNoEndpointNotVerbose(t *testing.T) {
	cfg := &config.TelemetryConfig{Enabled: true}

	shutdown, err := Init(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	tp := otel.GetTracerProvider()
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop.TracerProvider for no-endpoint/no-verbose, got %T", tp)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInit_EnabledVerboseWritesToDebugWriter(t *testing.T) {
	var buf bytes.Buffer
	prev := DebugWriter
	DebugWriter = &buf
	t.Cleanup(func() { DebugWriter = prev })

	cfg := &config.TelemetryConfig{Enabled: true}
	shutdown, err := Init(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	tp := otel.GetTracerProvider()
	if _, ok := tp.(noop.TracerProvider); ok {
		t.Fatal("expected real TracerProvider with verbose, got noop")
	}

	_, span := Tracer().Start(context.Background(), "test.span")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "test.span") {
		t.Errorf("expected span in debug output, got: %s", buf.String())
	}
}

func TestTracer_ReturnsTracer(t *testing.T) {
	if Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
}
