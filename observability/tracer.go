package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
)

const tracerName = "github.com/kbukum/canvasflow"

// Span names.
const (
	SpanRun        = "workflow.run"
	SpanNode       = "workflow.node"
	SpanCapability = "capability.invoke"
	SpanHTTP       = "http.request"
)

// Attribute keys.
const (
	AttrWorkflowID   = "workflow.id"
	AttrRunID        = "run.id"
	AttrNodeID       = "node.id"
	AttrNodeType     = "node.type"
	AttrCapability   = "capability.id"
	AttrStatus       = "status"
	AttrErrorMessage = "error.message"
)

// InitTracer installs an OTLP/HTTP tracer provider and W3C propagators as
// the globals. The caller shuts the provider down on exit.
func InitTracer(ctx context.Context, cfg TracerConfig, serviceName, serviceVersion string, log *logger.Logger) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	res, err := newResource(serviceName, serviceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info("tracer initialized", logger.Fields("endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate))
	return tp, nil
}

// newResource is shared by the tracer and meter providers.
func newResource(serviceName, serviceVersion string) (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// StartSpan starts a span on the canvasflow tracer. When ctx carries a run
// id the span is tagged with it, so node and capability spans of one run
// can be found together.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	if runID := logger.RunIDFromContext(ctx); runID != "" && span.IsRecording() {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
	return ctx, span
}

// SetSpanAttribute sets key on the span in ctx. Types without an OTel
// attribute kind are formatted with fmt.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(toAttribute(key, value))
	}
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

// SetSpanError marks the span in ctx failed and records the user-facing
// message under AttrErrorMessage.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(AttrErrorMessage, apperrors.Message(err)))
}
