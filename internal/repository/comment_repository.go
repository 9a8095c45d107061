package repository

import (
	"context"
	"errors"

	"redline/internal/domain"
	"redline/internal/domain/comment"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresCommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return redline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (comment.Comment, error) {
	var c comment.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return comment.Comment{}, redline_errors.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *PostgresCommentRepository) Update(ctx context.Context, c comment.Comment) error {
	res := r.db.WithContext(ctx).Save(&c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return redline_errors.ErrNotFound
	}
	return nil
}

// ListTopLevel returns top-level comments newest first. An empty status
// means no status filter.
func (r *PostgresCommentRepository) ListTopLevel(ctx context.Context, documentID uuid.UUID, status domain.CommentStatus) ([]comment.Comment, error) {
	q := r.db.WithContext(ctx).
		Where("document_id = ? AND parent_comment_id IS NULL", documentID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var comments []comment.Comment
	err := q.Order("created_at DESC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// ListReplies returns the replies for the given parents, oldest first.
func (r *PostgresCommentRepository) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]comment.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var replies []comment.Comment
	err := r.db.WithContext(ctx).
		Where("parent_comment_id IN ?", parentIDs).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}
