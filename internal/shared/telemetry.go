package shared

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry installs a global tracer provider according to cfg.
//
// When tracing is disabled the global no-op provider stays in place and the returned
// shutdown does nothing. Spans from the stdout exporter are written to w.
func InitTelemetry(ctx context.Context, cfg TelemetryConfig, w io.Writer, logger *log.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "lbx"
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.component", "catalog"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	exporter, err := buildTraceExporter(ctx, cfg, w)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if logger != nil {
		logger.Info("tracing initialized", "service", serviceName, "exporter", exporterName(cfg))
	}

	return tp.Shutdown, nil
}

func exporterName(cfg TelemetryConfig) string {
	if cfg.Exporter == "" {
		return "stdout"
	}
	return cfg.Exporter
}

func buildTraceExporter(ctx context.Context, cfg TelemetryConfig, w io.Writer) (sdktrace.SpanExporter, error) {
	switch exporterName(cfg) {
	case "otlp":
		var opts []otlptracehttp.Option
		endpoint := strings.TrimSpace(cfg.Endpoint)
		switch {
		case strings.Contains(endpoint, "://"):
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		case endpoint != "":
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case "stdout":
		if w == nil {
			w = io.Discard
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("%w: telemetry exporter %q", ErrInvalidConfig, cfg.Exporter)
	}
}

// sampleRatio clamps r to [0, 1]; zero means sample everything.
func sampleRatio(r float64) float64 {
	switch {
	case r <= 0:
		return 1
	case r > 1:
		return 1
	default:
		return r
	}
}
