package httpdto

import (
	"time"

	"redline/internal/domain/version"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateVersionRequest struct {
	Content     string   `json:"content"`
	VersionName string   `json:"version_name"`
	Description string   `json:"description"`
	IsMajor     bool     `json:"is_major_version"`
	IsPublished bool     `json:"is_published"`
	Tags        []string `json:"tags"`
}

func (r CreateVersionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.VersionName, validation.Length(0, 200)),
	)
}

type RestoreVersionRequest struct {
	VersionID string `json:"version_id"`
}

func (r RestoreVersionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VersionID, validation.Required, validation.Length(36, 36)),
	)
}

type ChangesSummaryDTO struct {
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
	Modifications int `json:"modifications"`
}

type VersionDTO struct {
	ID             string            `json:"id"`
	DocumentID     string            `json:"document_id"`
	VersionNumber  int               `json:"version_number"`
	VersionName    string            `json:"version_name,omitempty"`
	Description    string            `json:"description,omitempty"`
	FileSize       int64             `json:"file_size"`
	Checksum       string            `json:"checksum"`
	IsMajorVersion bool              `json:"is_major_version"`
	IsPublished    bool              `json:"is_published"`
	Tags           []string          `json:"tags,omitempty"`
	Changes        ChangesSummaryDTO `json:"changes_summary"`
	CreatedBy      string            `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
}

type ListVersionsResponse struct {
	Versions []VersionDTO `json:"versions"`
}

type CompareResponse struct {
	VersionA string            `json:"version_a"`
	VersionB string            `json:"version_b"`
	Changes  ChangesSummaryDTO `json:"changes_summary"`
}

func FromChanges(c version.ChangesSummary) ChangesSummaryDTO {
	return ChangesSummaryDTO{
		Additions:     c.Additions,
		Deletions:     c.Deletions,
		Modifications: c.Modifications,
	}
}

func FromVersion(v version.Version) VersionDTO {
	return VersionDTO{
		ID:             v.ID.String(),
		DocumentID:     v.DocumentID.String(),
		VersionNumber:  v.VersionNumber,
		VersionName:    v.VersionName,
		Description:    v.Description,
		FileSize:       v.FileSize,
		Checksum:       v.Checksum,
		IsMajorVersion: v.IsMajorVersion,
		IsPublished:    v.IsPublished,
		Tags:           v.Tags,
		Changes:        FromChanges(v.Changes),
		CreatedBy:      v.CreatedBy.String(),
		CreatedAt:      v.CreatedAt,
	}
}

func FromVersionSlice(versions []version.Version) []VersionDTO {
	out := make([]VersionDTO, 0, len(versions))
	for _, v := range versions {
		out = append(out, FromVersion(v))
	}
	return out
}
