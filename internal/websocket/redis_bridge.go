package websocket

import (
	"context"
	"encoding/json"

	"redline/internal/events"
	pkgevents "redline/pkg/events"
)

// RedisBridge fans events published through the outbox out to connected
// WebSocket clients. Session-scoped events go to the session channel,
// document-scoped events to the document channel.
type RedisBridge struct {
	subscriber pkgevents.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber pkgevents.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, events.SinkChannel, func(ctx context.Context, event pkgevents.Event) error {
		raw, err := json.Marshal(event.Payload)
		if err != nil {
			return nil
		}
		var env events.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil
		}

		if env.AggregateType == events.AggregateTypeSession {
			b.hub.Broadcast(SessionChannel(env.AggregateID), raw)
			return nil
		}
		b.hub.Broadcast(DocumentChannel(env.DocumentID), raw)
		return nil
	})
}
