package httpdto

import (
	"time"

	"redline/internal/domain/comment"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type AddCommentRequest struct {
	Content         string `json:"content"`
	Type            string `json:"type"`
	VersionID       string `json:"version_id,omitempty"`
	PageNumber      *int   `json:"page_number,omitempty"`
	HighlightedText string `json:"highlighted_text,omitempty"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
}

func (r AddCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Type, validation.In("", "general", "suggestion", "question", "approval", "rejection")),
		validation.Field(&r.VersionID, validation.Length(36, 36)),
		validation.Field(&r.ParentCommentID, validation.Length(36, 36)),
	)
}

type ResolveCommentRequest struct {
	Outcome string `json:"outcome"`
}

func (r ResolveCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Outcome, validation.Required, validation.In("resolved", "dismissed")),
	)
}

type CommentDTO struct {
	ID              string       `json:"id"`
	DocumentID      string       `json:"document_id"`
	AuthorID        string       `json:"author_id"`
	Content         string       `json:"content"`
	Type            string       `json:"type"`
	Status          string       `json:"status"`
	VersionID       string       `json:"version_id,omitempty"`
	PageNumber      *int         `json:"page_number,omitempty"`
	HighlightedText string       `json:"highlighted_text,omitempty"`
	ParentCommentID string       `json:"parent_comment_id,omitempty"`
	ResolvedBy      string       `json:"resolved_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Replies         []CommentDTO `json:"replies,omitempty"`
}

type ListCommentsResponse struct {
	Comments []CommentDTO `json:"comments"`
}

func FromComment(c comment.Comment) CommentDTO {
	dto := CommentDTO{
		ID:         c.ID.String(),
		DocumentID: c.DocumentID.String(),
		AuthorID:   c.AuthorID.String(),
		Content:    c.Content,
		Type:       string(c.Type),
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.VersionID.Valid {
		dto.VersionID = c.VersionID.UUID.String()
	}
	if c.PageNumber.Valid {
		page := int(c.PageNumber.Int32)
		dto.PageNumber = &page
	}
	if c.HighlightedText.Valid {
		dto.HighlightedText = c.HighlightedText.String
	}
	if c.ParentCommentID.Valid {
		dto.ParentCommentID = c.ParentCommentID.UUID.String()
	}
	if c.ResolvedBy.Valid {
		dto.ResolvedBy = c.ResolvedBy.UUID.String()
	}
	for _, r := range c.Replies {
		dto.Replies = append(dto.Replies, FromComment(r))
	}
	return dto
}

func FromCommentSlice(comments []comment.Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, FromComment(c))
	}
	return out
}
