package events

import (
	"encoding/json"
	"time"
)

// Envelope is the wire form delivered to the notification/audit sink.
// EventID is stable per event; the sink dedups on it because delivery
// is at-least-once.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	DocumentID    string          `json:"document_id"`
	ActorID       string          `json:"actor_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}
