// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "watermyplant/docs" // swagger docs
	"watermyplant/internal/auth"
	"watermyplant/internal/bootstrap"
	"watermyplant/internal/cache"
	"watermyplant/internal/config"
	"watermyplant/internal/database"
	"watermyplant/internal/featureflags"
	"watermyplant/internal/middleware"
	"watermyplant/internal/models"
	"watermyplant/internal/observability"
	"watermyplant/internal/repository"
	"watermyplant/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	apiTitle   = "Water My Plant API"
	apiVersion = "1.0.0"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	metrics         *observability.Metrics
	promMiddleware  *fiberprometheus.FiberPrometheus
	featureFlags    *featureflags.Manager
	userRepo        repository.UserRepository
	plantRepo       repository.PlantRepository
	wateringRepo    repository.WateringRepository
	authService     *service.AuthService
	plantService    *service.PlantService
	wateringService *service.WateringService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Metrics)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; metrics defaults to a fresh registry.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, metrics *observability.Metrics) (*Server, error) {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.JWTIssuer, cfg.JWTAudience)

	server := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		metrics:      metrics,
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
		userRepo:     repository.NewUserRepository(db, cache.New(redisClient)),
		plantRepo:    repository.NewPlantRepository(db),
		wateringRepo: repository.NewWateringRepository(db),
		promMiddleware: fiberprometheus.NewWithRegistry(
			metrics.Registry, "watermyplant-api", "http", "", nil),
	}

	server.authService = service.NewAuthService(server.userRepo, tokens, server.featureFlags, metrics)
	server.plantService = service.NewPlantService(server.plantRepo, metrics)
	server.wateringService = service.NewWateringService(server.wateringRepo, metrics)

	return server, nil
}

// App builds the Fiber application with middleware and routes mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      apiTitle,
		ErrorHandler: errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("error", err.Error()),
		slog.String("path", c.Path()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		// fiber refuses credentials together with a wildcard origin.
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: apiTitle + " Metrics Dashboard",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.authService)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", s.throttle(3, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/token", s.throttle(10, 5*time.Minute, "login"), s.Token)
	authRoutes.Get("/me", authRequired, s.Me)

	app.Get("/feature-flags", authRequired, s.GetFeatureFlags)

	plants := app.Group("/plants", authRequired)
	plants.Post("/", s.CreatePlant)
	plants.Get("/", s.ListPlants)
	plants.Get("/:id", s.GetPlant)
	plants.Put("/:id", s.UpdatePlant)
	plants.Delete("/:id", s.DeletePlant)

	watering := app.Group("/watering", authRequired)
	watering.Post("/", s.RecordWatering)
	watering.Get("/plant/:id/last", s.GetLastWatering)
	watering.Get("/plant/:id", s.GetWateringHistory)
	watering.Put("/:id", s.UpdateWatering)
	watering.Delete("/:id", s.DeleteWatering)
}

// throttle applies a redis-backed limit outside development and test.
func (s *Server) throttle(limit int, window time.Duration, name string) fiber.Handler {
	if middleware.RateLimitBypassed(s.config.Env) {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.RateLimit(s.redis, limit, window, name)
}

// Root handles GET /
// @Summary API welcome
// @Tags meta
// @Produce json
// @Success 200 {object} object{message=string,docs_url=string}
// @Router / [get]
func (s *Server) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":  "Welcome to " + apiTitle,
		"docs_url": "/swagger/index.html",
	})
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	// Redis is optional: the API degrades to uncached lookups without it.
	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": apiVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
