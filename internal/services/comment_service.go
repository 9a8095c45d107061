package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"redline/internal/domain"
	"redline/internal/domain/comment"
	"redline/internal/events"
	"redline/internal/proxy"
	"redline/internal/repository"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentService owns annotation threads on a document. Threads are
// two levels deep: top-level comments and one level of replies.
type CommentService struct {
	db        *gorm.DB
	repo      repository.CommentRepository
	eventRepo repository.EventRepository
	access    *proxy.AccessControl
}

func NewCommentService(db *gorm.DB, repo repository.CommentRepository, eventRepo repository.EventRepository, access *proxy.AccessControl) *CommentService {
	return &CommentService{db: db, repo: repo, eventRepo: eventRepo, access: access}
}

type AddCommentInput struct {
	DocumentID      uuid.UUID
	SessionID       uuid.UUID
	AuthorID        uuid.UUID
	Content         string
	Type            domain.CommentType
	VersionID       uuid.NullUUID
	PageNumber      sql.NullInt32
	HighlightedText string
	ParentCommentID uuid.NullUUID
}

// Add creates a comment or a reply. Replies must point at an existing
// top-level comment of the same document; deeper nesting is rejected.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (comment.Comment, error) {
	if err := s.access.Authorize(ctx, in.SessionID, in.AuthorID, proxy.ActionCommentAdd); err != nil {
		return comment.Comment{}, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return comment.Comment{}, redline_errors.ErrEmptyComment
	}
	if in.Type == "" {
		in.Type = domain.CommentTypeGeneral
	}
	if !in.Type.Valid() {
		return comment.Comment{}, redline_errors.ErrInvalidInput
	}

	if in.ParentCommentID.Valid {
		parent, err := s.repo.GetByID(ctx, in.ParentCommentID.UUID)
		if err != nil {
			if errors.Is(err, redline_errors.ErrNotFound) {
				return comment.Comment{}, redline_errors.ErrInvalidThreadDepth
			}
			return comment.Comment{}, err
		}
		if parent.DocumentID != in.DocumentID || parent.IsReply() {
			return comment.Comment{}, redline_errors.ErrInvalidThreadDepth
		}
	}

	now := time.Now()
	c := comment.Comment{
		ID:              uuid.New(),
		DocumentID:      in.DocumentID,
		AuthorID:        in.AuthorID,
		Content:         in.Content,
		Type:            in.Type,
		Status:          domain.CommentStatusOpen,
		VersionID:       in.VersionID,
		PageNumber:      in.PageNumber,
		ParentCommentID: in.ParentCommentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.HighlightedText != "" {
		c.HighlightedText = sql.NullString{String: in.HighlightedText, Valid: true}
	}

	err := s.inTx(ctx, func(repo repository.CommentRepository, eventRepo repository.EventRepository) error {
		if err := repo.Create(ctx, &c); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeComment, events.EventTypeCommentAdded, c.ID, c.DocumentID, in.AuthorID, c)
	})
	if err != nil {
		return comment.Comment{}, err
	}
	return c, nil
}

// Resolve moves an open comment to resolved or dismissed. Both are
// terminal; resolving a closed comment fails.
func (s *CommentService) Resolve(ctx context.Context, commentID, sessionID, actorID uuid.UUID, outcome domain.CommentStatus) (comment.Comment, error) {
	if outcome != domain.CommentStatusResolved && outcome != domain.CommentStatusDismissed {
		return comment.Comment{}, redline_errors.ErrInvalidInput
	}
	if err := s.access.Authorize(ctx, sessionID, actorID, proxy.ActionCommentResolve); err != nil {
		return comment.Comment{}, err
	}

	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return comment.Comment{}, err
	}
	if c.Closed() {
		return comment.Comment{}, redline_errors.ErrAlreadyClosed
	}

	c.Status = outcome
	c.ResolvedBy = uuid.NullUUID{UUID: actorID, Valid: true}
	c.UpdatedAt = time.Now()

	err = s.inTx(ctx, func(repo repository.CommentRepository, eventRepo repository.EventRepository) error {
		if err := repo.Update(ctx, c); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeComment, events.EventTypeCommentResolved, c.ID, c.DocumentID, actorID, c)
	})
	if err != nil {
		return comment.Comment{}, err
	}
	return c, nil
}

// ListFilter selects which top-level comments List returns.
type ListFilter string

const (
	FilterAll      ListFilter = "all"
	FilterOpen     ListFilter = "open"
	FilterResolved ListFilter = "resolved"
)

// List returns threads newest top-level first with replies oldest
// first within each thread. The ordering is part of the product
// contract: recency surfaces unresolved discussion first.
func (s *CommentService) List(ctx context.Context, documentID uuid.UUID, filter ListFilter) ([]comment.Comment, error) {
	var status domain.CommentStatus
	switch filter {
	case FilterOpen:
		status = domain.CommentStatusOpen
	case FilterResolved:
		status = domain.CommentStatusResolved
	case FilterAll, "":
		status = ""
	default:
		status = ""
	}

	topLevel, err := s.repo.ListTopLevel(ctx, documentID, status)
	if err != nil {
		return nil, err
	}
	if len(topLevel) == 0 {
		return []comment.Comment{}, nil
	}

	parentIDs := make([]uuid.UUID, len(topLevel))
	for i, c := range topLevel {
		parentIDs[i] = c.ID
	}
	replies, err := s.repo.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]comment.Comment, len(topLevel))
	for _, r := range replies {
		byParent[r.ParentCommentID.UUID] = append(byParent[r.ParentCommentID.UUID], r)
	}
	for i := range topLevel {
		topLevel[i].Replies = byParent[topLevel[i].ID]
	}
	return topLevel, nil
}

func (s *CommentService) inTx(ctx context.Context, fn func(repo repository.CommentRepository, eventRepo repository.EventRepository) error) error {
	if s.db == nil {
		return fn(s.repo, s.eventRepo)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewCommentRepository(tx), repository.NewEventRepository(tx))
	})
}
