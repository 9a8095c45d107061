package main

import (
	"context"
	"log"

	"redline/internal/config"
	"redline/internal/domain/comment"
	"redline/internal/domain/event"
	"redline/internal/domain/session"
	"redline/internal/domain/version"
	"redline/internal/events"
	"redline/internal/handler"
	"redline/internal/outbox"
	"redline/internal/proxy"
	"redline/internal/ratelimit"
	"redline/internal/repository"
	"redline/internal/server"
	"redline/internal/services"
	"redline/internal/storage"
	"redline/internal/websocket"
	"redline/pkg/database"
	"redline/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Table sync first, then raw migrations (partial indexes need the
	// tables in place).
	if err := db.AutoMigrate(
		&session.Session{},
		&session.Participant{},
		&version.Version{},
		&comment.Comment{},
		&event.OutboxEvent{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}
	if err := database.ApplyRawMigrations(db, "migrations"); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var store storage.ContentStore
	if cfg.Storage.Backend == "s3" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Endpoint:  cfg.Storage.Endpoint,
			Timeout:   cfg.Storage.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to init s3 storage: %v", err)
		}
		store = s3Store
	} else {
		fsStore, err := storage.NewFSStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatalf("Failed to init fs storage: %v", err)
		}
		store = fsStore
	}

	sessionRepo := repository.NewSessionRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	access := proxy.NewAccessControl(sessionRepo)

	sessionService := services.NewSessionService(db, sessionRepo, eventRepo, access, l, cfg.Limits)
	versionService := services.NewVersionService(db, versionRepo, eventRepo, store, access, l)
	commentService := services.NewCommentService(db, commentRepo, eventRepo, access)

	broker := events.NewRedisBroker(redisClient)
	runner := outbox.NewRunner(outbox.ConfiguredProcessor(eventRepo, broker, cfg.Outbox))
	runner.Start(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	bridge := websocket.NewRedisBridge(broker, hub)
	if err := bridge.Run(ctx); err != nil {
		l.Errorf("event bridge failed to start: %s", err)
	}

	limiter := ratelimit.NewLimiter(redisClient, ratelimit.DefaultConfig())

	srv := server.New(cfg, l, db)
	srv.SetupRoutes(&server.Handlers{
		Session: handler.NewSessionHandler(sessionService),
		Version: handler.NewVersionHandler(versionService, sessionService),
		Comment: handler.NewCommentHandler(commentService, sessionService),
		Socket:  websocket.NewHandler(sessionService, websocket.NewChannelAuthorizer(access), hub),
	}, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
