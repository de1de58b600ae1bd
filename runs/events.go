package runs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/canvasflow/kafka"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/sse"
	"github.com/kbukum/canvasflow/workflow"
)

// ClientPattern matches the SSE clients following runID.
func ClientPattern(runID string) string { return "run:" + runID + ":*" }

// ClientID names one SSE client following runID.
func ClientID(runID, suffix string) string { return "run:" + runID + ":" + suffix }

const sinkTimeout = 10 * time.Second

// publisher fans run events out to SSE clients and the event sink. Sink
// sends happen off the execution path, in order per run.
type publisher struct {
	hub  sse.Broadcaster
	sink provider.Sink[kafka.Event]
	log  *logger.Logger
}

// stream carries one run's sink events to a single sender goroutine.
type stream struct {
	p      *publisher
	runID  string
	queue  chan kafka.Event
	closed sync.Once
	done   chan struct{}
}

func (p *publisher) open(ctx context.Context, runID string) *stream {
	s := &stream{p: p, runID: runID, queue: make(chan kafka.Event, 64), done: make(chan struct{})}
	if p.sink == nil {
		close(s.done)
		return s
	}
	go s.drain(context.WithoutCancel(ctx))
	return s
}

func (s *stream) drain(ctx context.Context) {
	defer close(s.done)
	for ev := range s.queue {
		if !s.p.sink.IsAvailable(ctx) {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.p.sink.Send(sendCtx, ev); err != nil {
			s.p.log.WithContext(ctx).Warn("run event not published", logger.Fields(
				logger.FieldRunID, s.runID, "event", ev.Type, logger.FieldError, err.Error()))
		}
		cancel()
	}
}

// close flushes pending sink events.
func (s *stream) close() {
	s.closed.Do(func() { close(s.queue) })
	<-s.done
}

func (s *stream) emit(eventType string, data map[string]any) {
	if s.p.sink == nil {
		return
	}
	ev, err := kafka.NewEvent(eventType, s.runID, data)
	if err != nil {
		s.p.log.Error("run event encode failed", logger.Fields(logger.FieldRunID, s.runID, logger.FieldError, err.Error()))
		return
	}
	s.queue <- ev
}

func (s *stream) broadcast(eventType string, v any) {
	if s.p.hub == nil {
		return
	}
	ev, err := sse.NewEvent(eventType, v)
	if err != nil {
		s.p.log.Error("sse event encode failed", logger.Fields(logger.FieldRunID, s.runID, logger.FieldError, err.Error()))
		return
	}
	s.p.hub.Broadcast(ClientPattern(s.runID), ev)
}

func (s *stream) started(run Run) {
	s.emit(kafka.EventRunStarted, map[string]any{
		"runId":      run.ID,
		"workflowId": run.WorkflowID,
	})
}

func (s *stream) nodeUpdated(u workflow.NodeUpdate) {
	s.broadcast(sse.EventNodeUpdate, u)

	data := map[string]any{"runId": s.runID, "nodeId": u.NodeID}
	if u.Status != "" {
		data["status"] = string(u.Status)
	}
	if u.Result != nil {
		data["result"] = u.Result
	}
	if u.Error != nil {
		data["error"] = *u.Error
	}
	s.emit(kafka.EventNodeUpdated, data)
}

func (s *stream) finished(run Run) {
	s.broadcast(sse.EventRunFinished, run)

	data := map[string]any{
		"runId":      run.ID,
		"workflowId": run.WorkflowID,
		"status":     string(run.Status),
	}
	if run.Result != nil {
		data["success"] = run.Result.Success
		data["errors"] = run.Result.Errors
	}
	if run.StartedAt != nil && run.CompletedAt != nil {
		data["durationMs"] = run.CompletedAt.Sub(*run.StartedAt).Milliseconds()
	}
	s.emit(kafka.EventRunFinished, data)
}

// FinishedEvent builds the SSE event that ends a run's stream.
func FinishedEvent(run *Run) (sse.Event, error) {
	ev, err := sse.NewEvent(sse.EventRunFinished, run)
	if err != nil {
		return sse.Event{}, fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	return ev, nil
}
