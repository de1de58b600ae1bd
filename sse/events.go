package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// Event types shared by the hub and its publishers.
const (
	EventConnected   = "connected"
	EventNodeUpdate  = "node.update"
	EventRunFinished = "run.finished"
	EventError       = "error"
)

// Event is one SSE frame.
type Event struct {
	Type string
	Data []byte
}

// NewEvent marshals v as the event data.
func NewEvent(eventType string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("sse event %s: %w", eventType, err)
	}
	return Event{Type: eventType, Data: data}, nil
}

// WriteTo writes the event in wire format.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var n int
	var err error
	if e.Type != "" {
		n, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.Data)
	} else {
		n, err = fmt.Fprintf(w, "data: %s\n\n", e.Data)
	}
	return int64(n), err
}

// Broadcaster sends events to every client whose id matches pattern.
type Broadcaster interface {
	Broadcast(pattern string, ev Event)
}
