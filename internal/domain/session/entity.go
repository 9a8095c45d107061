package session

import (
	"database/sql"
	"time"

	"redline/internal/domain"

	"github.com/google/uuid"
)

// Settings is embedded into Session; columns get a settings_ prefix.
type Settings struct {
	AllowAnonymous  bool `json:"allow_anonymous"`
	RequireApproval bool `json:"require_approval"`
	EnableChat      bool `json:"enable_chat"`
	EnableVoice     bool `json:"enable_voice"`
	AutoSaveSeconds int  `json:"auto_save_interval_seconds"`
}

// Session represents the sessions table. A session is one bounded
// collaboration period on a document; ended sessions are retained for
// audit and never deleted.
type Session struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	DocumentID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name            string               `gorm:"not null"`
	Type            domain.SessionType   `gorm:"not null"`
	MaxParticipants int                  `gorm:"not null"`
	IsPublic        bool                 `gorm:"not null"`
	AccessCode      string               `gorm:"not null;index"`
	Status          domain.SessionStatus `gorm:"not null;index"`
	Settings        Settings             `gorm:"embedded;embeddedPrefix:settings_"`
	HostUserID      uuid.UUID            `gorm:"type:uuid;not null"`
	StartedAt       sql.NullTime
	EndedAt         sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Relationships
	Participants []Participant `gorm:"foreignKey:SessionID"`
}

// Participant represents the participants table. One row per
// (session, user); leave is a soft removal, never a delete.
type Participant struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey"`
	SessionID       uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_session_user"`
	UserID          uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_session_user"`
	Role            domain.ParticipantRole   `gorm:"not null"`
	Status          domain.ParticipantStatus `gorm:"not null"`
	PendingApproval bool                     `gorm:"not null;default:false"`
	JoinedAt        time.Time                `gorm:"not null"`
	LeftAt          sql.NullTime
}

func (Session) TableName() string {
	return "sessions"
}

func (Participant) TableName() string {
	return "participants"
}

// Joinable reports whether the session can accept new participants.
func (s Session) Joinable() bool {
	switch s.Status {
	case domain.SessionStatusScheduled, domain.SessionStatusActive, domain.SessionStatusPaused:
		return true
	}
	return false
}

// CanTransition enforces the monotonic status machine:
// scheduled -> active <-> paused, and active/paused -> ended.
// ended is terminal.
func (s Session) CanTransition(to domain.SessionStatus) bool {
	switch s.Status {
	case domain.SessionStatusScheduled:
		return to == domain.SessionStatusActive
	case domain.SessionStatusActive:
		return to == domain.SessionStatusPaused || to == domain.SessionStatusEnded
	case domain.SessionStatusPaused:
		return to == domain.SessionStatusActive || to == domain.SessionStatusEnded
	}
	return false
}
