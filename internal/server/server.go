// Package server contains the HTTP handlers of the circles data service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"circles/internal/bootstrap"
	"circles/internal/config"
	"circles/internal/featureflags"
	"circles/internal/middleware"
	"circles/internal/models"
	"circles/internal/notifications"
	"circles/internal/observability"
	"circles/internal/repository"
	"circles/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	features       *featureflags.Manager
	circleRepo     repository.CircleRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	circleService  *service.CircleService
	postService    *service.PostService
	commentService *service.CommentService
}

// NewServer initializes the runtime (database, Redis and built-in circles) and
// builds a server on top of it.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedBuiltIns: cfg.SeedBuiltIns})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting and change events are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("circles-api"),
		circleRepo:     repository.NewCircleRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		features:       featureflags.NewManager(cfg.FeatureFlags),
	}
	s.circleService = service.NewCircleService(s.circleRepo)
	s.postService = service.NewPostService(s.postRepo, s.circleRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)

	if redisClient != nil && s.features.EnabledOr(featureflags.FlagChangeEvents, "", true) {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	// Tracing first so ContextMiddleware can pick up the trace id.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so that 429 responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global per-IP ceiling; write routes get a tighter Redis-backed limit.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Circles API Metrics",
	}))
	api.Get("/features", middleware.OptionalAuth, s.GetFeatureFlags)

	window := time.Duration(s.config.RateLimitWindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	writes := s.config.RateLimitWrites
	if writes <= 0 {
		writes = 60
	}
	writeLimit := middleware.RateLimit(s.redis, writes, window, "writes")
	protected := []fiber.Handler{middleware.AuthRequired, writeLimit}

	circles := api.Group("/circles")
	circles.Get("/", middleware.OptionalAuth, s.ListCircles)
	circles.Post("/", append(protected, s.CreateCircle)...)
	// Specific /:slug/:resource routes before the generic /:slug routes
	circles.Get("/:slug/members", s.ListCircleMembers)
	circles.Get("/:slug/posts", middleware.OptionalAuth, s.ListCirclePosts)
	circles.Post("/:slug/posts", append(protected, s.CreatePost)...)
	circles.Post("/:slug/join", append(protected, s.JoinCircle)...)
	circles.Post("/:slug/leave", append(protected, s.LeaveCircle)...)
	circles.Get("/:slug", middleware.OptionalAuth, s.GetCircle)
	circles.Patch("/:slug", append(protected, s.UpdateCircle)...)
	circles.Delete("/:slug", append(protected, s.DeleteCircle)...)

	posts := api.Group("/posts")
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", append(protected, s.CreateComment)...)
	posts.Post("/:id/like", append(protected, s.TogglePostLike)...)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", append(protected, s.UpdatePost)...)
	posts.Delete("/:id", append(protected, s.DeletePost)...)

	comments := api.Group("/comments")
	comments.Post("/:id/like", append(protected, s.ToggleCommentLike)...)
	comments.Patch("/:id", append(protected, s.UpdateComment)...)
	comments.Delete("/:id", append(protected, s.DeleteComment)...)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: the
// service degrades to uncached reads without it, so only the database gates readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Circles API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{
					Error: fe.Message,
					Code:  models.CodeForStatus(fe.Code),
				})
			}
			observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	observability.GlobalLogger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("server shutdown complete")
	return nil
}
