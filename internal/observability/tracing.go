// Package observability wires OpenTelemetry tracing for the service.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/okian/satfinder/internal/config"
	"github.com/okian/satfinder/pkg/logger"
)

const defaultOTLPEndpoint = "localhost:4317"

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // used when Exporter == otlp
	SampleRatio float64

	// Writer receives stdout spans. Defaults to os.Stdout.
	Writer io.Writer
}

// TracingConfigFrom extracts the tracing settings from the service config.
func TracingConfigFrom(cfg *config.Config) TracingConfig {
	return TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	}
}

// InitTracing installs a global tracer provider and propagators. The returned
// function flushes and stops the provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logger.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logger.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := exporterFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "satfinder"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Info(ctx, "tracing enabled",
		logger.String("exporter", cfg.Exporter),
		logger.String("service_name", cfg.ServiceName),
		logger.String("sampler", fmt.Sprintf("parentbased_traceidratio_%0.2f", cfg.SampleRatio)),
	)

	return tp.Shutdown, nil
}

func exporterFromConfig(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		return otlptrace.New(ctx, client)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExporter, cfg.Exporter)
	}
}

// ShutdownWithTimeout invokes shutdown with a bounded timeout, logging and
// swallowing any error.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logger.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logger.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
	}
}
