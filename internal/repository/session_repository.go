package repository

import (
	"context"
	"errors"
	"time"

	"redline/internal/domain"
	"redline/internal/domain/session"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *session.Session) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return redline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	var s session.Session
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Session{}, redline_errors.ErrNotFound
		}
		return session.Session{}, err
	}
	return s, nil
}

func (r *PostgresSessionRepository) Update(ctx context.Context, s session.Session) error {
	res := r.db.WithContext(ctx).Omit("Participants").Save(&s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return redline_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]session.Session, error) {
	var sessions []session.Session
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// AccessCodeInUse checks the code against all non-ended sessions;
// ended sessions release their codes.
func (r *PostgresSessionRepository) AccessCodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&session.Session{}).
		Where("access_code = ? AND status <> ?", code, domain.SessionStatusEnded).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasActiveSession reports whether another session on the document is
// currently active. A document carries at most one active session.
func (r *PostgresSessionRepository) HasActiveSession(ctx context.Context, documentID, excludeSessionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&session.Session{}).
		Where("document_id = ? AND status = ? AND id <> ?", documentID, domain.SessionStatusActive, excludeSessionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresSessionRepository) AddParticipant(ctx context.Context, p *session.Participant) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return redline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSessionRepository) GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (session.Participant, error) {
	var p session.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Participant{}, redline_errors.ErrNotFound
		}
		return session.Participant{}, err
	}
	return p, nil
}

func (r *PostgresSessionRepository) GetParticipants(ctx context.Context, sessionID uuid.UUID) ([]session.Participant, error) {
	var participants []session.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *PostgresSessionRepository) UpdateParticipant(ctx context.Context, p session.Participant) error {
	res := r.db.WithContext(ctx).Save(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return redline_errors.ErrNotFound
	}
	return nil
}

// CountJoined counts participants occupying a capacity slot: anyone who
// has not left, including pending approvals.
func (r *PostgresSessionRepository) CountJoined(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&session.Participant{}).
		Where("session_id = ? AND left_at IS NULL", sessionID).
		Count(&count).Error
	return count, err
}

// MarkAllOffline is the end-of-session cascade: every participant still
// present goes offline with left_at set.
func (r *PostgresSessionRepository) MarkAllOffline(ctx context.Context, sessionID uuid.UUID, leftAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&session.Participant{}).
		Where("session_id = ? AND left_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"status":  domain.ParticipantStatusOffline,
			"left_at": leftAt,
		}).Error
}
