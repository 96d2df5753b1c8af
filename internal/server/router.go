package server

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/cache"
	"github.com/Anvoria/sessionly/internal/config"
	"github.com/Anvoria/sessionly/internal/database"
	"github.com/Anvoria/sessionly/internal/domain/audit"
	"github.com/Anvoria/sessionly/internal/domain/auth"
	"github.com/Anvoria/sessionly/internal/domain/session"
	"github.com/Anvoria/sessionly/internal/domain/user"
	"github.com/Anvoria/sessionly/internal/metrics"
)

// dependencies are the stores and settings the routes are built from
type dependencies struct {
	db       *gorm.DB
	redis    *redis.Client
	secret   []byte
	cfg      *config.Config
	registry *prometheus.Registry
}

// SetupRoutes loads the signing secret and registers every route on app using the
// global database and Redis connections.
func SetupRoutes(app *fiber.App, envConfig *config.Environment, cfg *config.Config) error {
	secret, err := config.LoadSigningSecret(envConfig.JWTSecret, envConfig.Environment)
	if err != nil {
		return fmt.Errorf("failed to load signing secret: %w", err)
	}
	if envConfig.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	_, err = registerRoutes(app, dependencies{
		db:       database.DB,
		redis:    cache.RedisClient,
		secret:   secret,
		cfg:      cfg,
		registry: registry,
	})
	return err
}

// registerRoutes wires repositories, services and handlers and mounts them under /v1
func registerRoutes(app *fiber.App, deps dependencies) (*auth.Service, error) {
	cfg := deps.cfg

	tokens, err := auth.NewTokenIssuer(deps.secret, cfg.Auth.IssuerOr(cfg.Server.Domain), cfg.Auth.Audience, cfg.Auth.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}
	slog.Info("Signing key loaded", "key_id", tokens.KeyID())

	// Repositories
	userRepo := user.NewRepository(deps.db)
	sessionRepo := session.NewRepository(deps.db)
	auditRepo := audit.NewRepository(deps.db)

	// Services
	userService := user.NewService(userRepo)
	sessionService := session.NewService(sessionRepo, cfg.Auth.RefreshTTL())
	revocations := cache.NewRevocationCache(deps.redis, cfg.Redis.RevocationTTLDuration())
	m := metrics.New(deps.registry)

	authService := auth.NewService(userService, sessionService, tokens, revocations, audit.NewRecorder(auditRepo), m)
	authHandler := auth.NewHandler(authService)

	api := app.Group("/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	verify := auth.VerifyMiddleware(tokens)
	gate := auth.SessionMiddleware(authService)

	authGroup.Get("", verify, gate, authHandler.Authenticated)
	authGroup.Get("/session-info", verify, gate, authHandler.SessionInfo)
	authGroup.Get("/sessions", verify, gate, authHandler.ListSessions)
	authGroup.Delete("/sessions/:sid", verify, gate, authHandler.LogoutSession)
	authGroup.Post("/logout", verify, gate, authHandler.Logout)
	authGroup.Get("/admin-only", verify, gate, auth.RequireRole(user.RoleAdmin), authHandler.AdminOnly)

	app.Get("/metrics", metrics.Handler(deps.registry))

	return authService, nil
}
