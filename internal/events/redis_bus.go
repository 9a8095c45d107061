package events

import (
	"context"
	"encoding/json"
	"fmt"

	pkgevents "redline/pkg/events"

	"github.com/redis/go-redis/v9"
)

// RedisBroker publishes envelopes to redis pub/sub and lets local
// consumers subscribe. It implements pkg/events.Broker.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, event pkgevents.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.client.Publish(ctx, channel, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string, handler pkgevents.Handler) error {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event pkgevents.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				_ = handler(ctx, event)
			}
		}
	}()
	return nil
}

// PublishEnvelope wraps an Envelope into the generic event form and
// sends it to the sink channel.
func (b *RedisBroker) PublishEnvelope(ctx context.Context, env Envelope) error {
	return b.Publish(ctx, SinkChannel, pkgevents.Event{
		ID:        env.EventID,
		Type:      env.EventType,
		Payload:   env,
		Timestamp: env.OccurredAt.Unix(),
	})
}
