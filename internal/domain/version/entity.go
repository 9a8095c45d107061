package version

import (
	"time"

	"github.com/google/uuid"
)

// ChangesSummary counts the line-level differences against the
// immediately preceding version.
type ChangesSummary struct {
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
	Modifications int `json:"modifications"`
}

// Version represents the versions table: an immutable snapshot of a
// document's content. Rows are never updated or deleted; restore
// appends a new row.
type Version struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_version"`
	VersionNumber    int       `gorm:"not null;uniqueIndex:idx_document_version"`
	VersionName      string
	Description      string
	ContentReference string `gorm:"not null"`
	FileSize         int64  `gorm:"not null"`
	Checksum         string `gorm:"not null"`
	IsMajorVersion   bool
	IsPublished      bool
	Tags             []string       `gorm:"serializer:json"`
	Changes          ChangesSummary `gorm:"embedded;embeddedPrefix:changes_"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedAt        time.Time      `gorm:"not null"`
}

func (Version) TableName() string {
	return "versions"
}
