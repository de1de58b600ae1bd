package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types published for runs.
const (
	EventRunStarted  = "run.started"
	EventNodeUpdated = "node.updated"
	EventRunFinished = "run.finished"
)

// Source is the event source of everything this service publishes.
const Source = "canvasflow"

// Event is the JSON envelope written to the topic.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	ContentType string         `json:"content_type"`
	Version     string         `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Subject     string         `json:"subject,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// NewEvent builds an event about subject. data is round-tripped through
// JSON so struct payloads land as plain maps.
func NewEvent(eventType, subject string, data any) (Event, error) {
	ev := Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Source:      Source,
		ContentType: "application/json",
		Version:     "1.0",
		Timestamp:   time.Now().UTC(),
		Subject:     subject,
	}
	if data == nil {
		return ev, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event data: %w", err)
	}
	if err := json.Unmarshal(raw, &ev.Data); err != nil {
		ev.Data = map[string]any{"payload": data}
	}
	return ev, nil
}

// Message converts the event into a kafka-go message on topic, keyed by
// subject.
func (e Event) Message(topic string) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	key := e.Subject
	if key == "" {
		key = e.ID
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(e.ID)},
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-source", Value: []byte(e.Source)},
			{Key: "content-type", Value: []byte(e.ContentType)},
		},
	}, nil
}

// EventFromMessage decodes a message written by Event.Message.
func EventFromMessage(msg kafka.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}
