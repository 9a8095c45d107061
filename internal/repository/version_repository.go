package repository

import (
	"context"
	"errors"

	"redline/internal/domain/version"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresVersionRepository struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &PostgresVersionRepository{db: db}
}

func (r *PostgresVersionRepository) Create(ctx context.Context, v *version.Version) error {
	res := r.db.WithContext(ctx).Create(v)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return redline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (version.Version, error) {
	var v version.Version
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return version.Version{}, redline_errors.ErrVersionNotFound
		}
		return version.Version{}, err
	}
	return v, nil
}

// Latest is max(version_number) for the document. There is no stored
// head pointer; the history itself is authoritative.
func (r *PostgresVersionRepository) Latest(ctx context.Context, documentID uuid.UUID) (version.Version, error) {
	var v version.Version
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return version.Version{}, redline_errors.ErrVersionNotFound
		}
		return version.Version{}, err
	}
	return v, nil
}

func (r *PostgresVersionRepository) MaxVersionNumber(ctx context.Context, documentID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&version.Version{}).
		Where("document_id = ?", documentID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]version.Version, error) {
	var versions []version.Version
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}
