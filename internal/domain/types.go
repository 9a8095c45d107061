package domain

type SessionType string

const (
	SessionTypeView    SessionType = "view"
	SessionTypeEdit    SessionType = "edit"
	SessionTypeReview  SessionType = "review"
	SessionTypeMeeting SessionType = "meeting"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeView, SessionTypeEdit, SessionTypeReview, SessionTypeMeeting:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusEnded     SessionStatus = "ended"
)

type ParticipantRole string

const (
	ParticipantRoleHost        ParticipantRole = "host"
	ParticipantRoleModerator   ParticipantRole = "moderator"
	ParticipantRoleParticipant ParticipantRole = "participant"
	ParticipantRoleObserver    ParticipantRole = "observer"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case ParticipantRoleHost, ParticipantRoleModerator, ParticipantRoleParticipant, ParticipantRoleObserver:
		return true
	}
	return false
}

// Rank orders roles for authorization decisions: host > moderator >
// participant > observer.
func (r ParticipantRole) Rank() int {
	switch r {
	case ParticipantRoleHost:
		return 4
	case ParticipantRoleModerator:
		return 3
	case ParticipantRoleParticipant:
		return 2
	case ParticipantRoleObserver:
		return 1
	}
	return 0
}

type ParticipantStatus string

const (
	ParticipantStatusActive  ParticipantStatus = "active"
	ParticipantStatusIdle    ParticipantStatus = "idle"
	ParticipantStatusAway    ParticipantStatus = "away"
	ParticipantStatusOffline ParticipantStatus = "offline"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantStatusActive, ParticipantStatusIdle, ParticipantStatusAway, ParticipantStatusOffline:
		return true
	}
	return false
}

type CommentType string

const (
	CommentTypeGeneral    CommentType = "general"
	CommentTypeSuggestion CommentType = "suggestion"
	CommentTypeQuestion   CommentType = "question"
	CommentTypeApproval   CommentType = "approval"
	CommentTypeRejection  CommentType = "rejection"
)

func (t CommentType) Valid() bool {
	switch t {
	case CommentTypeGeneral, CommentTypeSuggestion, CommentTypeQuestion, CommentTypeApproval, CommentTypeRejection:
		return true
	}
	return false
}

type CommentStatus string

const (
	CommentStatusOpen      CommentStatus = "open"
	CommentStatusResolved  CommentStatus = "resolved"
	CommentStatusDismissed CommentStatus = "dismissed"
)
