package proxy

import (
	"context"
	"errors"

	"redline/internal/domain"
	"redline/internal/domain/session"
	"redline/internal/repository"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
)

// Action names a capability a participant may hold within a session.
type Action string

const (
	ActionSessionPause       Action = "session.pause"
	ActionSessionResume      Action = "session.resume"
	ActionSessionEnd         Action = "session.end"
	ActionParticipantSetRole Action = "participant.set_role"
	ActionParticipantApprove Action = "participant.approve"
	ActionCommentAdd         Action = "comment.add"
	ActionCommentResolve     Action = "comment.resolve"
	ActionVersionCreate      Action = "version.create"
	ActionVersionRestore     Action = "version.restore"
	ActionVersionView        Action = "version.view"
)

// minimumRole is the single place the role hierarchy is consulted:
// host > moderator > participant > observer.
var minimumRole = map[Action]domain.ParticipantRole{
	ActionSessionPause:       domain.ParticipantRoleModerator,
	ActionSessionResume:      domain.ParticipantRoleModerator,
	ActionSessionEnd:         domain.ParticipantRoleModerator,
	ActionParticipantSetRole: domain.ParticipantRoleModerator,
	ActionParticipantApprove: domain.ParticipantRoleModerator,
	ActionCommentAdd:         domain.ParticipantRoleParticipant,
	ActionCommentResolve:     domain.ParticipantRoleParticipant,
	ActionVersionCreate:      domain.ParticipantRoleParticipant,
	ActionVersionRestore:     domain.ParticipantRoleParticipant,
	ActionVersionView:        domain.ParticipantRoleObserver,
}

type AccessControl struct {
	sessionRepo repository.SessionRepository
}

func NewAccessControl(sessionRepo repository.SessionRepository) *AccessControl {
	return &AccessControl{sessionRepo: sessionRepo}
}

// Authorize checks that userID is a present, approved participant of
// the session and that its role covers the action.
func (a *AccessControl) Authorize(ctx context.Context, sessionID, userID uuid.UUID, action Action) error {
	if a.sessionRepo == nil {
		return redline_errors.ErrForbidden
	}
	p, err := a.sessionRepo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, redline_errors.ErrNotFound) {
			return redline_errors.ErrForbidden
		}
		return err
	}
	return AuthorizeParticipant(p, action)
}

// AuthorizeParticipant is the pure capability check for an already
// loaded participant record. Participants who left or are awaiting
// approval hold no capabilities.
func AuthorizeParticipant(p session.Participant, action Action) error {
	if p.LeftAt.Valid || p.PendingApproval {
		return redline_errors.ErrForbidden
	}
	required, ok := minimumRole[action]
	if !ok {
		return redline_errors.ErrForbidden
	}
	if p.Role.Rank() < required.Rank() {
		return redline_errors.ErrForbidden
	}
	return nil
}
