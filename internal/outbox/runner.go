package outbox

import (
	"context"

	"redline/internal/config"
	"redline/internal/repository"
)

type Runner struct {
	processor *Processor
}

func NewRunner(processor *Processor) *Runner {
	return &Runner{processor: processor}
}

func (r *Runner) Start(ctx context.Context) {
	go r.processor.Run(ctx)
}

func ConfiguredProcessor(repo repository.EventRepository, publisher Publisher, cfg config.OutboxConfig) *Processor {
	return NewProcessor(repo, publisher, cfg.BatchSize, cfg.Interval, cfg.MaxRetries)
}
