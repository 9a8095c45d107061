package comment

import (
	"database/sql"
	"time"

	"redline/internal/domain"

	"github.com/google/uuid"
)

// Comment represents the comments table: a threaded annotation on a
// document, optionally anchored to a version, a page, or a highlighted
// span. Content is immutable after creation; the only mutation is the
// open -> resolved/dismissed transition.
type Comment struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	DocumentID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	AuthorID        uuid.UUID            `gorm:"type:uuid;not null"`
	Content         string               `gorm:"not null"`
	Type            domain.CommentType   `gorm:"not null"`
	Status          domain.CommentStatus `gorm:"not null;index"`
	VersionID       uuid.NullUUID        `gorm:"type:uuid"`
	PageNumber      sql.NullInt32
	HighlightedText sql.NullString
	ParentCommentID uuid.NullUUID `gorm:"type:uuid;index"`
	ResolvedBy      uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt       time.Time     `gorm:"not null"`
	UpdatedAt       time.Time     `gorm:"not null"`

	// Replies are populated by list queries; depth is fixed at two,
	// so a reply never carries replies of its own.
	Replies []Comment `gorm:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// IsReply reports whether the comment is a second-level reply.
func (c Comment) IsReply() bool {
	return c.ParentCommentID.Valid
}

// Closed reports whether the comment left the open state. Both closed
// states are terminal.
func (c Comment) Closed() bool {
	return c.Status != domain.CommentStatusOpen
}
