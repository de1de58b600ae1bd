package kafka

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/logger"
)

// Component owns the producer's lifecycle and reports broker health.
type Component struct {
	cfg      Config
	log      *logger.Logger
	mu       sync.Mutex
	producer io.Closer
	running  bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("kafka")}
}

// SetProducer hands the producer to the component, which closes it on Stop.
func (c *Component) SetProducer(p io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.producer = p
}

func (c *Component) Name() string { return "kafka" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.log.Info("kafka component started", logger.Fields("brokers", c.cfg.Brokers, "topic", c.cfg.Topic))
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	if c.producer == nil {
		return nil
	}
	err := c.producer.Close()
	c.producer = nil
	return err
}

// Health dials the first broker and reads cluster metadata.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if !running {
		h.Message = "kafka not started"
		return h
	}
	dialer, err := CreateDialer(&c.cfg)
	if err != nil {
		h.Message = fmt.Sprintf("dialer: %v", err)
		return h
	}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Brokers[0])
	if err != nil {
		h.Message = fmt.Sprintf("broker unreachable: %v", err)
		return h
	}
	defer conn.Close()
	if _, err := conn.Brokers(); err != nil {
		h.Status, h.Message = component.StatusDegraded, fmt.Sprintf("broker metadata: %v", err)
		return h
	}
	h.Status = component.StatusHealthy
	if r, ok := c.reporter(); ok {
		h.Message = r.Metrics().String()
	}
	return h
}

func (c *Component) reporter() (metricsReporter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.producer.(metricsReporter)
	return r, ok
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Kafka",
		Type:    "kafka",
		Details: fmt.Sprintf("brokers=%v topic=%s", c.cfg.Brokers, c.cfg.Topic),
	}
}
