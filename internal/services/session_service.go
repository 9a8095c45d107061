package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"time"

	"redline/internal/config"
	"redline/internal/domain"
	"redline/internal/domain/session"
	"redline/internal/events"
	"redline/internal/proxy"
	"redline/internal/repository"
	redline_errors "redline/pkg/errors"
	"redline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const accessCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const accessCodeAttempts = 5

// SessionService coordinates session lifecycle and participant
// membership. It is the single entry point that authorizes actions
// against session state before the other engines run.
type SessionService struct {
	db        *gorm.DB
	repo      repository.SessionRepository
	eventRepo repository.EventRepository
	access    *proxy.AccessControl
	log       *logger.Logger
	locks     *keyedMutex
	limits    config.LimitsConfig
}

func NewSessionService(db *gorm.DB, repo repository.SessionRepository, eventRepo repository.EventRepository, access *proxy.AccessControl, log *logger.Logger, limits config.LimitsConfig) *SessionService {
	if limits.MaxParticipantsCap <= 0 {
		limits.MaxParticipantsCap = 50
	}
	if limits.AccessCodeLength <= 0 {
		limits.AccessCodeLength = 8
	}
	return &SessionService{
		db:        db,
		repo:      repo,
		eventRepo: eventRepo,
		access:    access,
		log:       log,
		locks:     newKeyedMutex(),
		limits:    limits,
	}
}

type CreateSessionInput struct {
	DocumentID      uuid.UUID
	HostUserID      uuid.UUID
	Name            string
	Type            domain.SessionType
	MaxParticipants int
	IsPublic        bool
	StartActive     bool
	Settings        session.Settings
}

// Create validates the config, generates a collision-checked access
// code and creates the session together with its host participant in
// one transaction. A failed create leaves no orphan participant.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (session.Session, error) {
	if in.Name == "" {
		return session.Session{}, redline_errors.ErrInvalidConfig
	}
	if in.Type == "" {
		in.Type = domain.SessionTypeReview
	}
	if !in.Type.Valid() {
		return session.Session{}, redline_errors.ErrInvalidConfig
	}
	if in.MaxParticipants == 0 {
		in.MaxParticipants = 10
	}
	if in.MaxParticipants < 2 || in.MaxParticipants > s.limits.MaxParticipantsCap {
		return session.Session{}, redline_errors.ErrInvalidConfig
	}

	if in.StartActive {
		unlock := s.locks.Lock("document-active:" + in.DocumentID.String())
		defer unlock()
		active, err := s.repo.HasActiveSession(ctx, in.DocumentID, uuid.Nil)
		if err != nil {
			return session.Session{}, err
		}
		if active {
			return session.Session{}, redline_errors.ErrInvalidConfig
		}
	}

	code, err := s.generateAccessCode(ctx)
	if err != nil {
		return session.Session{}, err
	}

	now := time.Now()
	sess := session.Session{
		ID:              uuid.New(),
		DocumentID:      in.DocumentID,
		Name:            in.Name,
		Type:            in.Type,
		MaxParticipants: in.MaxParticipants,
		IsPublic:        in.IsPublic,
		AccessCode:      code,
		Status:          domain.SessionStatusScheduled,
		Settings:        in.Settings,
		HostUserID:      in.HostUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.StartActive {
		sess.Status = domain.SessionStatusActive
		sess.StartedAt = sql.NullTime{Time: now, Valid: true}
	}

	host := session.Participant{
		ID:        uuid.New(),
		SessionID: sess.ID,
		UserID:    in.HostUserID,
		Role:      domain.ParticipantRoleHost,
		Status:    domain.ParticipantStatusActive,
		JoinedAt:  now,
	}

	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.Create(ctx, &sess); err != nil {
			return err
		}
		if err := repo.AddParticipant(ctx, &host); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeSession, events.EventTypeSessionCreated, sess.ID, sess.DocumentID, in.HostUserID, sess)
	})
	if err != nil {
		return session.Session{}, err
	}

	sess.Participants = []session.Participant{host}
	return sess, nil
}

type JoinSessionInput struct {
	SessionID  uuid.UUID
	UserID     uuid.UUID
	AccessCode string
}

// Join adds the user to the session. Joins on the same session are
// linearized so capacity is never exceeded when two users race for the
// last slot. Joining twice returns the existing participant.
func (s *SessionService) Join(ctx context.Context, in JoinSessionInput) (session.Participant, error) {
	unlock := s.locks.Lock("session:" + in.SessionID.String())
	defer unlock()

	sess, err := s.repo.GetByID(ctx, in.SessionID)
	if err != nil {
		return session.Participant{}, err
	}
	if sess.Status == domain.SessionStatusEnded {
		return session.Participant{}, redline_errors.ErrSessionEnded
	}
	if !sess.Joinable() {
		return session.Participant{}, redline_errors.ErrSessionEnded
	}
	existing, lookupErr := s.repo.GetParticipant(ctx, in.SessionID, in.UserID)
	if lookupErr == nil && !existing.LeftAt.Valid {
		// Already joined; the access code is not re-checked.
		return existing, nil
	}
	if lookupErr != nil && !errors.Is(lookupErr, redline_errors.ErrNotFound) {
		return session.Participant{}, lookupErr
	}

	if !sess.IsPublic && in.AccessCode != sess.AccessCode {
		return session.Participant{}, redline_errors.ErrAccessDenied
	}

	if lookupErr == nil {
		// Rejoin after leave: reclaim a slot if one is open.
		return s.rejoin(ctx, sess, existing)
	}

	count, err := s.repo.CountJoined(ctx, in.SessionID)
	if err != nil {
		return session.Participant{}, err
	}
	if count >= int64(sess.MaxParticipants) {
		return session.Participant{}, redline_errors.ErrSessionFull
	}

	p := session.Participant{
		ID:        uuid.New(),
		SessionID: in.SessionID,
		UserID:    in.UserID,
		Role:      domain.ParticipantRoleParticipant,
		Status:    domain.ParticipantStatusActive,
		JoinedAt:  time.Now(),
	}
	if sess.Settings.RequireApproval {
		p.Status = domain.ParticipantStatusOffline
		p.PendingApproval = true
	}

	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.AddParticipant(ctx, &p); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeParticipant, events.EventTypeParticipantJoined, p.ID, sess.DocumentID, in.UserID, p)
	})
	if err != nil {
		return session.Participant{}, err
	}
	return p, nil
}

func (s *SessionService) rejoin(ctx context.Context, sess session.Session, p session.Participant) (session.Participant, error) {
	count, err := s.repo.CountJoined(ctx, sess.ID)
	if err != nil {
		return session.Participant{}, err
	}
	if count >= int64(sess.MaxParticipants) {
		return session.Participant{}, redline_errors.ErrSessionFull
	}

	p.Status = domain.ParticipantStatusActive
	p.LeftAt = sql.NullTime{}
	if sess.Settings.RequireApproval && p.Role != domain.ParticipantRoleHost {
		p.Status = domain.ParticipantStatusOffline
		p.PendingApproval = true
	}

	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.UpdateParticipant(ctx, p); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeParticipant, events.EventTypeParticipantJoined, p.ID, sess.DocumentID, p.UserID, p)
	})
	if err != nil {
		return session.Participant{}, err
	}
	return p, nil
}

// Transition moves the session through the status machine. Transitions
// for a given session are linearized; ended is terminal.
func (s *SessionService) Transition(ctx context.Context, sessionID, actorID uuid.UUID, to domain.SessionStatus) (session.Session, error) {
	unlock := s.locks.Lock("session:" + sessionID.String())
	defer unlock()

	action, ok := transitionAction(to)
	if !ok {
		return session.Session{}, redline_errors.ErrInvalidTransition
	}

	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	// State machine before capabilities: ending marks every participant
	// departed, and a move out of ended must still fail as invalid
	// rather than forbidden.
	if !sess.CanTransition(to) {
		return session.Session{}, redline_errors.ErrInvalidTransition
	}
	if err := s.access.Authorize(ctx, sessionID, actorID, action); err != nil {
		return session.Session{}, err
	}
	if to == domain.SessionStatusActive {
		unlock := s.locks.Lock("document-active:" + sess.DocumentID.String())
		defer unlock()
		active, err := s.repo.HasActiveSession(ctx, sess.DocumentID, sessionID)
		if err != nil {
			return session.Session{}, err
		}
		if active {
			return session.Session{}, redline_errors.ErrInvalidTransition
		}
	}

	now := time.Now()
	sess.Status = to
	sess.UpdatedAt = now
	switch to {
	case domain.SessionStatusActive:
		if !sess.StartedAt.Valid {
			sess.StartedAt = sql.NullTime{Time: now, Valid: true}
		}
	case domain.SessionStatusEnded:
		sess.EndedAt = sql.NullTime{Time: now, Valid: true}
	}

	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.Update(ctx, sess); err != nil {
			return err
		}
		if to == domain.SessionStatusEnded {
			if err := repo.MarkAllOffline(ctx, sessionID, now); err != nil {
				return err
			}
			return createOutboxEvent(ctx, eventRepo, events.AggregateTypeSession, events.EventTypeSessionEnded, sess.ID, sess.DocumentID, actorID, sess)
		}
		return nil
	})
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func transitionAction(to domain.SessionStatus) (proxy.Action, bool) {
	switch to {
	case domain.SessionStatusActive:
		return proxy.ActionSessionResume, true
	case domain.SessionStatusPaused:
		return proxy.ActionSessionPause, true
	case domain.SessionStatusEnded:
		return proxy.ActionSessionEnd, true
	}
	return "", false
}

// SetRole escalates or demotes a participant. The host role is fixed
// at creation: it can be neither assigned nor taken away.
func (s *SessionService) SetRole(ctx context.Context, sessionID, actorID, targetUserID uuid.UUID, newRole domain.ParticipantRole) (session.Participant, error) {
	if !newRole.Valid() || newRole == domain.ParticipantRoleHost {
		return session.Participant{}, redline_errors.ErrForbidden
	}
	if err := s.access.Authorize(ctx, sessionID, actorID, proxy.ActionParticipantSetRole); err != nil {
		return session.Participant{}, err
	}

	target, err := s.repo.GetParticipant(ctx, sessionID, targetUserID)
	if err != nil {
		return session.Participant{}, err
	}
	if target.Role == domain.ParticipantRoleHost {
		return session.Participant{}, redline_errors.ErrForbidden
	}

	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Participant{}, err
	}

	target.Role = newRole
	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.UpdateParticipant(ctx, target); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeParticipant, events.EventTypeParticipantRoleChanged, target.ID, sess.DocumentID, actorID, target)
	})
	if err != nil {
		return session.Participant{}, err
	}
	return target, nil
}

// Approve admits a pending participant on a require_approval session.
func (s *SessionService) Approve(ctx context.Context, sessionID, actorID, targetUserID uuid.UUID) (session.Participant, error) {
	if err := s.access.Authorize(ctx, sessionID, actorID, proxy.ActionParticipantApprove); err != nil {
		return session.Participant{}, err
	}

	target, err := s.repo.GetParticipant(ctx, sessionID, targetUserID)
	if err != nil {
		return session.Participant{}, err
	}
	if !target.PendingApproval {
		return target, nil
	}

	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Participant{}, err
	}

	target.PendingApproval = false
	target.Status = domain.ParticipantStatusActive
	err = s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.UpdateParticipant(ctx, target); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeParticipant, events.EventTypeParticipantApproved, target.ID, sess.DocumentID, actorID, target)
	})
	if err != nil {
		return session.Participant{}, err
	}
	return target, nil
}

// Leave soft-removes the participant. A leaving host does not end the
// session; ending requires an explicit Transition call, so accidental
// disconnects never destroy a session.
func (s *SessionService) Leave(ctx context.Context, sessionID, userID uuid.UUID) error {
	p, err := s.repo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if p.LeftAt.Valid {
		return nil
	}

	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	p.Status = domain.ParticipantStatusOffline
	p.LeftAt = sql.NullTime{Time: time.Now(), Valid: true}
	return s.inTx(ctx, func(repo repository.SessionRepository, eventRepo repository.EventRepository) error {
		if err := repo.UpdateParticipant(ctx, p); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeParticipant, events.EventTypeParticipantLeft, p.ID, sess.DocumentID, userID, p)
	})
}

// Heartbeat records a presence signal for a joined participant.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID, userID uuid.UUID, status domain.ParticipantStatus) error {
	if !status.Valid() || status == domain.ParticipantStatusOffline {
		return redline_errors.ErrInvalidInput
	}
	p, err := s.repo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if p.LeftAt.Valid || p.PendingApproval {
		return redline_errors.ErrForbidden
	}
	p.Status = status
	return s.repo.UpdateParticipant(ctx, p)
}

// SetOffline drops a participant's presence without leaving the
// session. Used when the live connection closes.
func (s *SessionService) SetOffline(ctx context.Context, sessionID, userID uuid.UUID) error {
	p, err := s.repo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if p.LeftAt.Valid {
		return nil
	}
	p.Status = domain.ParticipantStatusOffline
	return s.repo.UpdateParticipant(ctx, p)
}

func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (session.Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

func (s *SessionService) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]session.Session, error) {
	return s.repo.ListByDocument(ctx, documentID)
}

func (s *SessionService) GetParticipants(ctx context.Context, sessionID uuid.UUID) ([]session.Participant, error) {
	return s.repo.GetParticipants(ctx, sessionID)
}

// generateAccessCode draws a random code and retries on the rare
// collision with another non-ended session.
func (s *SessionService) generateAccessCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < accessCodeAttempts; attempt++ {
		code, err := randomCode(s.limits.AccessCodeLength)
		if err != nil {
			return "", err
		}
		inUse, err := s.repo.AccessCodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	if s.log != nil {
		s.log.Errorf("access code generation exhausted %d attempts", accessCodeAttempts)
	}
	return "", redline_errors.ErrInternal
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = accessCodeCharset[int(b)%len(accessCodeCharset)]
	}
	return string(buf), nil
}

// inTx runs fn with repositories bound to one transaction so session,
// participant and outbox writes land or fail together.
func (s *SessionService) inTx(ctx context.Context, fn func(repo repository.SessionRepository, eventRepo repository.EventRepository) error) error {
	if s.db == nil {
		return fn(s.repo, s.eventRepo)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewSessionRepository(tx), repository.NewEventRepository(tx))
	})
}
