// Package observability configures OpenTelemetry tracing for the entries
// service. Spans come from three places: otelgin on every HTTP request, the
// GORM tracing plugin on every query, and manual spans in the services.
package observability

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-entries-backend/internal/config"
)

// Replaced in tests.
var (
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(ctx,
			resource.WithFromEnv(),
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// SetupOTel installs a batching OTLP/gRPC tracer provider and W3C
// propagators, and returns the function that flushes and stops it.
//
// With tracing disabled nothing global is touched and the returned function
// is a no-op. On error the previous globals stay in place.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}
	exp, err := newOTLPExporterFn(ctx, otlptracegrpc.NewClient(clientOptions(cfg)...))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Bool("insecure", cfg.Insecure).
		Float64("sample_ratio", cfg.SampleRatio).
		Str("service", cfg.ServiceName).
		Msg("otel tracing enabled")

	return func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}

func clientOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	return append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
}

// sampler honors the caller's decision and samples new roots by ratio.
func sampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
