package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redline/internal/config"
	"redline/internal/handler"
	"redline/internal/middleware"
	"redline/internal/ratelimit"
	"redline/internal/transport/httpdto"
	"redline/internal/websocket"
	"redline/pkg/database"
	"redline/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *gorm.DB
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Session *handler.SessionHandler
	Version *handler.VersionHandler
	Comment *handler.CommentHandler
	Socket  *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger, db *gorm.DB) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Environment == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, limiter *ratelimit.Limiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(s.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authn := middleware.AuthMiddleware(s.config.Auth.JWTSecret)
	writeLimit := middleware.WriteRateLimitMiddleware(limiter)
	joinLimit := middleware.JoinRateLimitMiddleware(limiter)

	sessions := s.engine.Group("/v1/sessions", authn)
	{
		sessions.POST("", writeLimit, handlers.Session.Create)
		sessions.GET("/:id", handlers.Session.GetByID)
		sessions.GET("/:id/participants", handlers.Session.GetParticipants)
		sessions.POST("/:id/join", joinLimit, handlers.Session.Join)
		sessions.POST("/:id/leave", handlers.Session.Leave)
		sessions.POST("/:id/transition", writeLimit, handlers.Session.Transition)
		sessions.POST("/:id/role", writeLimit, handlers.Session.SetRole)
		sessions.POST("/:id/approve", writeLimit, handlers.Session.Approve)
		sessions.POST("/:id/heartbeat", handlers.Session.Heartbeat)
		sessions.POST("/:id/versions", writeLimit, handlers.Version.Create)
		sessions.POST("/:id/versions/restore", writeLimit, handlers.Version.Restore)
		sessions.POST("/:id/comments", writeLimit, handlers.Comment.Add)
		sessions.POST("/:id/comments/:commentID/resolve", writeLimit, handlers.Comment.Resolve)
		sessions.GET("/:id/ws", handlers.Socket.Connect)
	}

	documents := s.engine.Group("/v1/documents", authn)
	{
		documents.GET("/:docID/sessions", handlers.Session.ListByDocument)
		documents.GET("/:docID/versions", handlers.Version.ListByDocument)
		documents.GET("/:docID/versions/latest", handlers.Version.Latest)
		documents.GET("/:docID/comments", handlers.Comment.ListByDocument)
	}

	versions := s.engine.Group("/v1/versions", authn)
	{
		versions.GET("/compare", handlers.Version.Compare)
		versions.GET("/:versionID/download", handlers.Version.Download)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.Server.Port)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
