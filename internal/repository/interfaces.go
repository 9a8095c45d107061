package repository

import (
	"context"
	"time"

	"redline/internal/domain"
	"redline/internal/domain/comment"
	"redline/internal/domain/event"
	"redline/internal/domain/session"
	"redline/internal/domain/version"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, s *session.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (session.Session, error)
	Update(ctx context.Context, s session.Session) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]session.Session, error)
	AccessCodeInUse(ctx context.Context, code string) (bool, error)
	HasActiveSession(ctx context.Context, documentID, excludeSessionID uuid.UUID) (bool, error)

	AddParticipant(ctx context.Context, p *session.Participant) error
	GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (session.Participant, error)
	GetParticipants(ctx context.Context, sessionID uuid.UUID) ([]session.Participant, error)
	UpdateParticipant(ctx context.Context, p session.Participant) error
	CountJoined(ctx context.Context, sessionID uuid.UUID) (int64, error)
	MarkAllOffline(ctx context.Context, sessionID uuid.UUID, leftAt time.Time) error
}

type VersionRepository interface {
	Create(ctx context.Context, v *version.Version) error
	GetByID(ctx context.Context, id uuid.UUID) (version.Version, error)
	Latest(ctx context.Context, documentID uuid.UUID) (version.Version, error)
	MaxVersionNumber(ctx context.Context, documentID uuid.UUID) (int, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]version.Version, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *comment.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (comment.Comment, error)
	Update(ctx context.Context, c comment.Comment) error
	ListTopLevel(ctx context.Context, documentID uuid.UUID, status domain.CommentStatus) ([]comment.Comment, error)
	ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]comment.Comment, error)
}

type EventRepository interface {
	CreateOutboxEvent(ctx context.Context, e *event.OutboxEvent) error
	GetPendingOutboxEvents(ctx context.Context, limit int) ([]event.OutboxEvent, error)
	MarkOutboxEventProcessed(ctx context.Context, id uuid.UUID) error
	MarkOutboxEventFailed(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, errorMessage string) error
}
