package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"redline/internal/config"
	"redline/internal/domain/comment"
	"redline/internal/domain/event"
	"redline/internal/domain/session"
	"redline/internal/domain/version"
	"redline/internal/proxy"
	"redline/internal/repository"
	"redline/internal/storage"
	"redline/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// Single connection keeps the shared-cache sqlite happy under the
	// concurrent tests; writes are serialized by the services anyway.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&session.Session{},
		&session.Participant{},
		&version.Version{},
		&comment.Comment{},
		&event.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type testEnv struct {
	db       *gorm.DB
	sessions *SessionService
	versions *VersionService
	comments *CommentService
	store    storage.ContentStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	access := proxy.NewAccessControl(sessionRepo)
	log := logger.NewNop()

	store, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}

	return &testEnv{
		db:       db,
		sessions: NewSessionService(db, sessionRepo, eventRepo, access, log, config.LimitsConfig{}),
		versions: NewVersionService(db, versionRepo, eventRepo, store, access, log),
		comments: NewCommentService(db, commentRepo, eventRepo, access),
		store:    store,
	}
}

func (e *testEnv) outboxCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&event.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return n
}
