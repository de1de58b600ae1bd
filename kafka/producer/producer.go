// Package producer writes events to Kafka through a kafka-go Writer.
package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/canvasflow/kafka"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/resilience"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("producer is closed")

// Writer is the part of kafka-go's Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Stats() kafkago.WriterStats
	Close() error
}

// Producer publishes events to the configured topic. It is a
// provider.Sink[kafka.Event].
type Producer struct {
	cfg    kafka.Config
	log    *logger.Logger
	mu     sync.RWMutex
	writer Writer
	closed bool
	totals kafka.WriterMetrics
}

var _ provider.Sink[kafka.Event] = (*Producer)(nil)

// New creates a producer. The writer is created on first use, so a broker
// that is down at startup does not fail the service.
func New(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka is disabled")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Producer{cfg: cfg, log: log.WithComponent("kafka.producer")}, nil
}

// NewWithWriter creates a producer around an existing writer.
func NewWithWriter(cfg kafka.Config, w Writer, log *logger.Logger) *Producer {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Producer{cfg: cfg, writer: w, log: log.WithComponent("kafka.producer")}
}

func (p *Producer) initWriter() (Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.writer != nil {
		return p.writer, nil
	}

	transport, err := kafka.CreateTransport(&p.cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(p.cfg.Brokers...),
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		BatchSize:    p.cfg.BatchSize,
		BatchTimeout: p.cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(p.cfg.RequiredAcks),
		Compression:  kafka.ResolveCompression(p.cfg.Compression),
		WriteTimeout: p.cfg.WriteTimeout,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			p.log.Error("writer: "+fmt.Sprintf(msg, args...))
		}),
	}
	p.log.Info("kafka producer initialized", logger.Fields(
		"brokers", p.cfg.Brokers, "topic", p.cfg.Topic, "compression", p.cfg.Compression))
	return p.writer, nil
}

func (p *Producer) Name() string { return p.cfg.Name }

// IsAvailable reports whether the producer is open.
func (p *Producer) IsAvailable(_ context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// Topic is the topic Send writes to.
func (p *Producer) Topic() string { return p.cfg.Topic }

// Send publishes ev to the configured topic.
func (p *Producer) Send(ctx context.Context, ev kafka.Event) error {
	return p.Publish(ctx, p.cfg.Topic, ev)
}

// Publish writes ev to topic.
func (p *Producer) Publish(ctx context.Context, topic string, ev kafka.Event) error {
	msg, err := ev.Message(topic)
	if err != nil {
		return err
	}
	if err := p.WriteMessages(ctx, msg); err != nil {
		return kafka.FromKafka(err, topic)
	}
	return nil
}

// WriteMessages writes msgs, retrying transient broker errors.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w, err := p.initWriter()
	if err != nil {
		return err
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = p.cfg.Retries
	retry.RetryIf = kafka.IsRetryableError
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		p.log.Warn("kafka write failed, retrying", logger.Fields(
			"attempt", attempt, "backoff", wait.String(), logger.FieldError, err.Error()))
	}
	return resilience.RetryFunc(ctx, retry, func() error {
		return w.WriteMessages(ctx, msgs...)
	})
}

// Metrics returns the totals since the producer was created.
func (p *Producer) Metrics() kafka.WriterMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer != nil {
		p.totals.Add(p.writer.Stats())
	}
	return p.totals
}

// Close flushes and closes the writer. Calling it twice is a no-op.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer == nil {
		return nil
	}
	p.log.Info("kafka producer closing")
	return p.writer.Close()
}
