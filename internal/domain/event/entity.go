package event

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent represents outbox_events. Events are written in the same
// transaction as the state change they describe and published to the
// notification/audit sink at least once; the event ID is the dedup key.
type OutboxEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AggregateType string    `gorm:"not null"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null"`
	EventType     string    `gorm:"not null"`
	DocumentID    uuid.UUID `gorm:"type:uuid;not null"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null"`
	Payload       string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	ProcessedAt   sql.NullTime
	RetryCount    int `gorm:"default:0"`
	NextRetryAt   sql.NullTime
	ErrorMessage  sql.NullString
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
