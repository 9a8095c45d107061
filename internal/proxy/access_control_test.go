package proxy

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"redline/internal/domain"
	"redline/internal/domain/session"
	redline_errors "redline/pkg/errors"
)

func participant(role domain.ParticipantRole) session.Participant {
	return session.Participant{
		Role:   role,
		Status: domain.ParticipantStatusActive,
	}
}

func TestAuthorizeParticipantRoles(t *testing.T) {
	cases := []struct {
		name    string
		role    domain.ParticipantRole
		action  Action
		allowed bool
	}{
		{"observer can view", domain.ParticipantRoleObserver, ActionVersionView, true},
		{"observer cannot comment", domain.ParticipantRoleObserver, ActionCommentAdd, false},
		{"observer cannot create version", domain.ParticipantRoleObserver, ActionVersionCreate, false},
		{"participant can comment", domain.ParticipantRoleParticipant, ActionCommentAdd, true},
		{"participant can resolve", domain.ParticipantRoleParticipant, ActionCommentResolve, true},
		{"participant can create version", domain.ParticipantRoleParticipant, ActionVersionCreate, true},
		{"participant cannot pause", domain.ParticipantRoleParticipant, ActionSessionPause, false},
		{"participant cannot set roles", domain.ParticipantRoleParticipant, ActionParticipantSetRole, false},
		{"moderator can pause", domain.ParticipantRoleModerator, ActionSessionPause, true},
		{"moderator can end", domain.ParticipantRoleModerator, ActionSessionEnd, true},
		{"moderator can approve", domain.ParticipantRoleModerator, ActionParticipantApprove, true},
		{"host can do everything", domain.ParticipantRoleHost, ActionParticipantSetRole, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeParticipant(participant(tc.role), tc.action)
			if tc.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, redline_errors.ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestAuthorizeParticipantDeniesAbsent(t *testing.T) {
	left := participant(domain.ParticipantRoleHost)
	left.LeftAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := AuthorizeParticipant(left, ActionVersionView); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("left participant: expected ErrForbidden, got %v", err)
	}

	pending := participant(domain.ParticipantRoleParticipant)
	pending.PendingApproval = true
	if err := AuthorizeParticipant(pending, ActionCommentAdd); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("pending participant: expected ErrForbidden, got %v", err)
	}

	if err := AuthorizeParticipant(participant(domain.ParticipantRoleHost), Action("session.explode")); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("unknown action: expected ErrForbidden, got %v", err)
	}
}

func TestRoleRanking(t *testing.T) {
	order := []domain.ParticipantRole{
		domain.ParticipantRoleObserver,
		domain.ParticipantRoleParticipant,
		domain.ParticipantRoleModerator,
		domain.ParticipantRoleHost,
	}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
}
