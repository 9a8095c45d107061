package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"redline/internal/domain/version"
	"redline/internal/events"
	"redline/internal/proxy"
	"redline/internal/repository"
	"redline/internal/storage"
	redline_errors "redline/pkg/errors"
	"redline/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VersionService owns the append-only, checksummed history of document
// snapshots. History is never rewritten: restore appends a new version
// whose content matches the target.
type VersionService struct {
	db        *gorm.DB
	repo      repository.VersionRepository
	eventRepo repository.EventRepository
	store     storage.ContentStore
	access    *proxy.AccessControl
	log       *logger.Logger
	locks     *keyedMutex
}

func NewVersionService(db *gorm.DB, repo repository.VersionRepository, eventRepo repository.EventRepository, store storage.ContentStore, access *proxy.AccessControl, log *logger.Logger) *VersionService {
	return &VersionService{
		db:        db,
		repo:      repo,
		eventRepo: eventRepo,
		store:     store,
		access:    access,
		log:       log,
		locks:     newKeyedMutex(),
	}
}

type CreateVersionInput struct {
	DocumentID  uuid.UUID
	SessionID   uuid.UUID
	ActorID     uuid.UUID
	Content     []byte
	VersionName string
	Description string
	IsMajor     bool
	IsPublished bool
	Tags        []string
}

// Create snapshots the content as the document's next version.
// version_number assignment is serialized per document so concurrent
// auto-saves never collide; the unique index is the backstop.
func (s *VersionService) Create(ctx context.Context, in CreateVersionInput) (version.Version, error) {
	if err := s.access.Authorize(ctx, in.SessionID, in.ActorID, proxy.ActionVersionCreate); err != nil {
		return version.Version{}, err
	}
	return s.create(ctx, in, events.EventTypeVersionCreated)
}

func (s *VersionService) create(ctx context.Context, in CreateVersionInput, eventType string) (version.Version, error) {
	unlock := s.locks.Lock("document:" + in.DocumentID.String())
	defer unlock()

	maxNumber, err := s.repo.MaxVersionNumber(ctx, in.DocumentID)
	if err != nil {
		return version.Version{}, err
	}

	changes, err := s.summarizeChanges(ctx, in.DocumentID, in.Content)
	if err != nil {
		return version.Version{}, err
	}

	v := version.Version{
		ID:             uuid.New(),
		DocumentID:     in.DocumentID,
		VersionNumber:  maxNumber + 1,
		VersionName:    in.VersionName,
		Description:    in.Description,
		FileSize:       int64(len(in.Content)),
		Checksum:       version.Checksum(in.Content),
		IsMajorVersion: in.IsMajor,
		IsPublished:    in.IsPublished,
		Tags:           in.Tags,
		Changes:        changes,
		CreatedBy:      in.ActorID,
		CreatedAt:      time.Now(),
	}
	v.ContentReference = fmt.Sprintf("documents/%s/versions/%s", in.DocumentID, v.ID)

	if err := s.store.Put(ctx, v.ContentReference, in.Content); err != nil {
		if ctx.Err() != nil {
			return version.Version{}, redline_errors.ErrTimeout
		}
		return version.Version{}, err
	}

	err = s.inTx(ctx, func(repo repository.VersionRepository, eventRepo repository.EventRepository) error {
		if err := repo.Create(ctx, &v); err != nil {
			return err
		}
		return createOutboxEvent(ctx, eventRepo, events.AggregateTypeVersion, eventType, v.ID, v.DocumentID, in.ActorID, v)
	})
	if err != nil {
		// A duplicate number here means the per-document serialization
		// was violated. That is a bug, not a user error.
		if errors.Is(err, redline_errors.ErrAlreadyExists) {
			s.log.ErrorWithContext(ctx, "version number collision despite serialization",
				zap.String("document_id", in.DocumentID.String()),
				zap.Int("version_number", v.VersionNumber))
			return version.Version{}, redline_errors.ErrInternal
		}
		return version.Version{}, err
	}
	return v, nil
}

// summarizeChanges diffs content against the current latest version.
// The first version counts entirely as additions.
func (s *VersionService) summarizeChanges(ctx context.Context, documentID uuid.UUID, content []byte) (version.ChangesSummary, error) {
	latest, err := s.repo.Latest(ctx, documentID)
	if err != nil {
		if errors.Is(err, redline_errors.ErrVersionNotFound) {
			return version.Diff(nil, content), nil
		}
		return version.ChangesSummary{}, err
	}
	previous, err := s.store.Get(ctx, latest.ContentReference)
	if err != nil {
		if ctx.Err() != nil {
			return version.ChangesSummary{}, redline_errors.ErrTimeout
		}
		return version.ChangesSummary{}, err
	}
	return version.Diff(previous, content), nil
}

// Restore appends a new version whose content matches the target.
// The target itself is never mutated and the head never jumps back.
func (s *VersionService) Restore(ctx context.Context, documentID, sessionID, actorID, targetVersionID uuid.UUID) (version.Version, error) {
	if err := s.access.Authorize(ctx, sessionID, actorID, proxy.ActionVersionRestore); err != nil {
		return version.Version{}, err
	}

	target, err := s.repo.GetByID(ctx, targetVersionID)
	if err != nil {
		return version.Version{}, err
	}
	if target.DocumentID != documentID {
		return version.Version{}, redline_errors.ErrVersionNotFound
	}

	content, err := s.store.Get(ctx, target.ContentReference)
	if err != nil {
		if ctx.Err() != nil {
			return version.Version{}, redline_errors.ErrTimeout
		}
		return version.Version{}, err
	}

	return s.create(ctx, CreateVersionInput{
		DocumentID:  documentID,
		SessionID:   sessionID,
		ActorID:     actorID,
		Content:     content,
		Description: fmt.Sprintf("Restored from version %d", target.VersionNumber),
		Tags:        target.Tags,
	}, events.EventTypeVersionRestored)
}

// Compare summarizes the difference from version a to version b.
// Order matters: additions and deletions swap when reversed.
func (s *VersionService) Compare(ctx context.Context, versionA, versionB uuid.UUID) (version.ChangesSummary, error) {
	a, err := s.repo.GetByID(ctx, versionA)
	if err != nil {
		return version.ChangesSummary{}, err
	}
	b, err := s.repo.GetByID(ctx, versionB)
	if err != nil {
		return version.ChangesSummary{}, err
	}
	if a.DocumentID != b.DocumentID {
		return version.ChangesSummary{}, redline_errors.ErrCrossDocumentCompare
	}

	contentA, err := s.store.Get(ctx, a.ContentReference)
	if err != nil {
		return version.ChangesSummary{}, err
	}
	contentB, err := s.store.Get(ctx, b.ContentReference)
	if err != nil {
		return version.ChangesSummary{}, err
	}
	return version.Diff(contentA, contentB), nil
}

// Download returns the stored bytes after verifying the checksum.
// A mismatch means storage corruption: it is logged at error severity
// and surfaced as an integrity failure, never silently retried.
func (s *VersionService) Download(ctx context.Context, versionID uuid.UUID) (version.Version, []byte, error) {
	v, err := s.repo.GetByID(ctx, versionID)
	if err != nil {
		return version.Version{}, nil, err
	}
	content, err := s.store.Get(ctx, v.ContentReference)
	if err != nil {
		if ctx.Err() != nil {
			return version.Version{}, nil, redline_errors.ErrTimeout
		}
		return version.Version{}, nil, err
	}
	if version.Checksum(content) != v.Checksum {
		s.log.ErrorWithContext(ctx, "stored content failed checksum verification",
			zap.String("version_id", v.ID.String()),
			zap.String("document_id", v.DocumentID.String()),
			zap.String("content_reference", v.ContentReference))
		return version.Version{}, nil, redline_errors.ErrIntegrity
	}
	return v, content, nil
}

// Latest resolves max(version_number) for the document. There is no
// stored current-version pointer to go stale.
func (s *VersionService) Latest(ctx context.Context, documentID uuid.UUID) (version.Version, error) {
	return s.repo.Latest(ctx, documentID)
}

func (s *VersionService) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]version.Version, error) {
	return s.repo.ListByDocument(ctx, documentID)
}

func (s *VersionService) inTx(ctx context.Context, fn func(repo repository.VersionRepository, eventRepo repository.EventRepository) error) error {
	if s.db == nil {
		return fn(s.repo, s.eventRepo)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewVersionRepository(tx), repository.NewEventRepository(tx))
	})
}
