package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/canvasflow/logger"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
func InitMeter(ctx context.Context, cfg MeterConfig, serviceName, serviceVersion string, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, serviceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields("endpoint", cfg.Endpoint, "interval", cfg.Interval.String()))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the canvasflow instruments.
type Metrics struct {
	runTotal           metric.Int64Counter
	runDuration        metric.Float64Histogram
	runActive          metric.Int64UpDownCounter
	nodeTotal          metric.Int64Counter
	nodeDuration       metric.Float64Histogram
	capabilityTotal    metric.Int64Counter
	capabilityDuration metric.Float64Histogram
	requestTotal       metric.Int64Counter
	requestDuration    metric.Float64Histogram
	errorTotal         metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.runTotal, "workflow.run.total", "Workflow runs by outcome"},
		{&m.nodeTotal, "workflow.node.total", "Node executions by type and outcome"},
		{&m.capabilityTotal, "capability.invoke.total", "Capability invocations by id and outcome"},
		{&m.requestTotal, "http.request.total", "HTTP requests by route and status"},
		{&m.errorTotal, "error.total", "Errors by type and component"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.runDuration, "workflow.run.duration", "Duration of workflow runs"},
		{&m.nodeDuration, "workflow.node.duration", "Duration of node executions"},
		{&m.capabilityDuration, "capability.invoke.duration", "Duration of capability invocations"},
		{&m.requestDuration, "http.request.duration", "Duration of HTTP requests"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("creating %s histogram: %w", h.name, err)
		}
	}

	if m.runActive, err = meter.Int64UpDownCounter("workflow.run.active",
		metric.WithDescription("Workflow runs in progress"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.run.active gauge: %w", err)
	}
	return m, nil
}

// RunStarted increments the active run gauge.
func (m *Metrics) RunStarted(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RunFinished decrements the active run gauge and records the outcome.
func (m *Metrics) RunFinished(ctx context.Context, status string, d time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, d.Seconds())
}

// RecordNode records one node execution.
func (m *Metrics) RecordNode(ctx context.Context, nodeType, status string, d time.Duration) {
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("node_type", nodeType)))
}

// RecordCapability records one capability invocation.
func (m *Metrics) RecordCapability(ctx context.Context, capability, status string, d time.Duration) {
	m.capabilityTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("status", status),
	))
	m.capabilityDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("capability", capability)))
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("route", route)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
