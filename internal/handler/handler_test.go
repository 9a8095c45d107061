package handler

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
	"redline/internal/services"
	"redline/internal/storage"
	"redline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var handlerDBSeq atomic.Int64

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:handler_%s_%d?mode=memory&cache=shared", name, handlerDBSeq.Add(1))
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

type handlerEnv struct {
	sessions *services.SessionService
	versions *services.VersionService
	comments *services.CommentService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db := newHandlerDB(t)
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

	return &handlerEnv{
		sessions: services.NewSessionService(db, sessionRepo, eventRepo, access, log, config.LimitsConfig{}),
		versions: services.NewVersionService(db, versionRepo, eventRepo, store, access, log),
		comments: services.NewCommentService(db, commentRepo, eventRepo, access),
	}
}

// identityMiddleware stands in for the JWT middleware: it injects the
// given user id the way the auth layer would after verifying a token.
func identityMiddleware(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := services.WithIdentityContext(c.Request.Context(), userID, "", "")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newTestRouter(env *handlerEnv, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	sh := NewSessionHandler(env.sessions)
	vh := NewVersionHandler(env.versions, env.sessions)
	ch := NewCommentHandler(env.comments, env.sessions)

	authed := r.Group("", identityMiddleware(userID))
	authed.POST("/v1/sessions", sh.Create)
	authed.GET("/v1/sessions/:id", sh.GetByID)
	authed.POST("/v1/sessions/:id/join", sh.Join)
	authed.POST("/v1/sessions/:id/transition", sh.Transition)
	authed.POST("/v1/sessions/:id/versions", vh.Create)
	authed.POST("/v1/sessions/:id/comments", ch.Add)
	authed.GET("/v1/documents/:docID/comments", ch.ListByDocument)
	authed.GET("/v1/versions/:versionID/download", vh.Download)

	// No identity on this route: every handler should reject it.
	r.POST("/unauthed/sessions", sh.Create)
	return r
}
