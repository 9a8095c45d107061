package outbox

import (
	"context"
	"encoding/json"
	"time"

	"redline/internal/events"
	"redline/internal/repository"
)

// Publisher delivers an envelope to the notification/audit sink.
type Publisher interface {
	PublishEnvelope(ctx context.Context, env events.Envelope) error
}

// Processor drains pending outbox rows and publishes them. Delivery is
// at-least-once: a row is only marked processed after a successful
// publish, so a crash in between re-delivers.
type Processor struct {
	repo       repository.EventRepository
	publisher  Publisher
	clock      func() time.Time
	batchSize  int
	interval   time.Duration
	maxRetries int
}

func NewProcessor(repo repository.EventRepository, publisher Publisher, batchSize int, interval time.Duration, maxRetries int) *Processor {
	return &Processor{
		repo:       repo,
		publisher:  publisher,
		clock:      time.Now,
		batchSize:  batchSize,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

func (p *Processor) ProcessBatch(ctx context.Context) {
	batch, err := p.repo.GetPendingOutboxEvents(ctx, p.batchSize)
	if err != nil || len(batch) == 0 {
		return
	}

	for _, e := range batch {
		if e.RetryCount >= p.maxRetries {
			_ = p.repo.MarkOutboxEventFailed(ctx, e.ID, p.clock().Add(time.Hour), "max retries exceeded")
			continue
		}

		env := events.Envelope{
			EventID:       e.ID.String(),
			EventType:     e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID.String(),
			DocumentID:    e.DocumentID.String(),
			ActorID:       e.ActorID.String(),
			OccurredAt:    e.CreatedAt.UTC(),
			Payload:       json.RawMessage(e.Payload),
		}

		if err := p.publisher.PublishEnvelope(ctx, env); err != nil {
			_ = p.repo.MarkOutboxEventFailed(ctx, e.ID, p.clock().Add(time.Minute), err.Error())
			continue
		}

		_ = p.repo.MarkOutboxEventProcessed(ctx, e.ID)
	}
}
