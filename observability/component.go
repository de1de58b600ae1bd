package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/logger"
)

// Component installs the exporters on Start and flushes them on Stop.
// With both exporters disabled the global no-op providers stay in place
// and Metrics still records into them.
type Component struct {
	cfg            Config
	serviceName    string
	serviceVersion string
	log            *logger.Logger

	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component.
func NewComponent(cfg Config, serviceName, serviceVersion string, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()
	return &Component{
		cfg:            cfg,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		log:            log.WithComponent("observability"),
	}
}

// Metrics returns the instruments, or nil before Start.
func (c *Component) Metrics() *Metrics { return c.metrics }

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, c.cfg.Tracing, c.serviceName, c.serviceVersion, c.log)
		if err != nil {
			return fmt.Errorf("observability start: %w", err)
		}
		c.tp = tp
	}
	if c.cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, c.cfg.Metrics, c.serviceName, c.serviceVersion, c.log)
		if err != nil {
			return fmt.Errorf("observability start: %w", err)
		}
		c.mp = mp
	}
	m, err := NewMetrics(Meter(c.serviceName))
	if err != nil {
		return fmt.Errorf("observability metrics: %w", err)
	}
	c.metrics = m
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	return errors.Join(errs...)
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.metrics == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Observability",
		Type:    "telemetry",
		Details: fmt.Sprintf("tracing=%t metrics=%t endpoint=%s", c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled, c.cfg.Tracing.Endpoint),
	}
}
