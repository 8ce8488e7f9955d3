package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// SyncTracer provides distributed tracing for the sync pipeline
type SyncTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(), // TODO: Add TLS configuration
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("quality-sync"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewSyncTracer creates a new sync tracer
func NewSyncTracer(serviceName string) *SyncTracer {
	return &SyncTracer{tracer: otel.Tracer(serviceName)}
}

// StartConnectSpan starts a span covering one stream connection attempt
func (st *SyncTracer) StartConnectSpan(ctx context.Context, url, dataSource string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "stream_connect",
		trace.WithAttributes(
			attribute.String("stream.url", url),
			attribute.String("data_source.id", dataSource),
			attribute.String("component", "transport"),
		),
	)
}

// StartFetchSpan starts a span covering one backend REST call
func (st *SyncTracer) StartFetchSpan(ctx context.Context, operation, dataSource string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "backend_fetch",
		trace.WithAttributes(
			attribute.String("fetch.operation", operation),
			attribute.String("data_source.id", dataSource),
			attribute.String("component", "restapi"),
		),
	)
}

// EndSpan finishes a span, recording err if the operation failed
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
