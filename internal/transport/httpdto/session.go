package httpdto

import (
	"time"

	"redline/internal/domain/session"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type SessionSettingsDTO struct {
	AllowAnonymous  bool `json:"allow_anonymous"`
	RequireApproval bool `json:"require_approval"`
	EnableChat      bool `json:"enable_chat"`
	EnableVoice     bool `json:"enable_voice"`
	AutoSaveSeconds int  `json:"auto_save_interval_seconds"`
}

type CreateSessionRequest struct {
	DocumentID      string             `json:"document_id"`
	Name            string             `json:"name"`
	Type            string             `json:"type"`
	MaxParticipants int                `json:"max_participants"`
	IsPublic        bool               `json:"is_public"`
	StartActive     bool               `json:"start_active"`
	Settings        SessionSettingsDTO `json:"settings"`
}

func (r CreateSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocumentID, validation.Required, validation.Length(36, 36)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Type, validation.In("", "view", "edit", "review", "meeting")),
		validation.Field(&r.MaxParticipants, validation.Min(0), validation.Max(1000)),
	)
}

type JoinSessionRequest struct {
	AccessCode string `json:"access_code"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

func (r TransitionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In("active", "paused", "ended")),
	)
}

type SetRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r SetRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(36, 36)),
		validation.Field(&r.Role, validation.Required, validation.In("moderator", "participant", "observer")),
	)
}

type HeartbeatRequest struct {
	Status string `json:"status"`
}

func (r HeartbeatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In("active", "idle", "away")),
	)
}

type ApproveRequest struct {
	UserID string `json:"user_id"`
}

func (r ApproveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(36, 36)),
	)
}

type ParticipantDTO struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	UserID          string     `json:"user_id"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	PendingApproval bool       `json:"pending_approval"`
	JoinedAt        time.Time  `json:"joined_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
}

type SessionDTO struct {
	ID              string             `json:"id"`
	DocumentID      string             `json:"document_id"`
	Name            string             `json:"name"`
	Type            string             `json:"type"`
	MaxParticipants int                `json:"max_participants"`
	IsPublic        bool               `json:"is_public"`
	AccessCode      string             `json:"access_code,omitempty"`
	Status          string             `json:"status"`
	Settings        SessionSettingsDTO `json:"settings"`
	HostUserID      string             `json:"host_user_id"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	EndedAt         *time.Time         `json:"ended_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Participants    []ParticipantDTO   `json:"participants,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
}

func FromParticipant(p session.Participant) ParticipantDTO {
	dto := ParticipantDTO{
		ID:              p.ID.String(),
		SessionID:       p.SessionID.String(),
		UserID:          p.UserID.String(),
		Role:            string(p.Role),
		Status:          string(p.Status),
		PendingApproval: p.PendingApproval,
		JoinedAt:        p.JoinedAt,
	}
	if p.LeftAt.Valid {
		t := p.LeftAt.Time
		dto.LeftAt = &t
	}
	return dto
}

// FromSession converts a session for the response body. The access
// code is included only for the host, who distributes it.
func FromSession(s session.Session, includeCode bool) SessionDTO {
	dto := SessionDTO{
		ID:              s.ID.String(),
		DocumentID:      s.DocumentID.String(),
		Name:            s.Name,
		Type:            string(s.Type),
		MaxParticipants: s.MaxParticipants,
		IsPublic:        s.IsPublic,
		Status:          string(s.Status),
		Settings: SessionSettingsDTO{
			AllowAnonymous:  s.Settings.AllowAnonymous,
			RequireApproval: s.Settings.RequireApproval,
			EnableChat:      s.Settings.EnableChat,
			EnableVoice:     s.Settings.EnableVoice,
			AutoSaveSeconds: s.Settings.AutoSaveSeconds,
		},
		HostUserID: s.HostUserID.String(),
		CreatedAt:  s.CreatedAt,
	}
	if includeCode {
		dto.AccessCode = s.AccessCode
	}
	if s.StartedAt.Valid {
		t := s.StartedAt.Time
		dto.StartedAt = &t
	}
	if s.EndedAt.Valid {
		t := s.EndedAt.Time
		dto.EndedAt = &t
	}
	for _, p := range s.Participants {
		dto.Participants = append(dto.Participants, FromParticipant(p))
	}
	return dto
}

func FromSessionSlice(sessions []session.Session) []SessionDTO {
	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, FromSession(s, false))
	}
	return out
}
