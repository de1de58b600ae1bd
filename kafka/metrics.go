package kafka

import (
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// WriterMetrics are running producer totals. kafka-go resets its writer
// counters on every Stats call, so the producer folds each snapshot in
// with Add.
type WriterMetrics struct {
	Writes       int64         `json:"writes"`
	Messages     int64         `json:"messages"`
	Bytes        int64         `json:"bytes"`
	Errors       int64         `json:"errors"`
	Retries      int64         `json:"retries"`
	MaxWriteTime time.Duration `json:"max_write_time"`
}

// Add folds one Stats snapshot into the totals.
func (m *WriterMetrics) Add(s kafkago.WriterStats) {
	m.Writes += s.Writes
	m.Messages += s.Messages
	m.Bytes += s.Bytes
	m.Errors += s.Errors
	m.Retries += s.Retries
	m.MaxWriteTime = max(m.MaxWriteTime, s.WriteTime.Max)
}

func (m WriterMetrics) String() string {
	return fmt.Sprintf("%d messages published, %d errors", m.Messages, m.Errors)
}

// metricsReporter is implemented by producers handed to SetProducer.
type metricsReporter interface {
	Metrics() WriterMetrics
}
