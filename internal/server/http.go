package server

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Anvoria/sessionly/internal/cache"
	"github.com/Anvoria/sessionly/internal/config"
	"github.com/Anvoria/sessionly/internal/database"
	"github.com/Anvoria/sessionly/internal/migrations"
	"github.com/Anvoria/sessionly/internal/utils"
)

// Start initializes logging, connects to the database and Redis, runs migrations,
// registers routes and listens on the configured address.
func Start(cfg *config.Config) error {
	initLogger(cfg.Logging.Level)

	app := newApp(&cfg.Server)

	if err := database.ConnectDB(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer func() { _ = database.CloseDB() }()
	slog.Info("Database connected successfully")

	if err := cache.ConnectRedis(&cfg.Redis); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		return err
	}
	defer func() { _ = cache.CloseRedis() }()

	if err := migrations.RunMigrations(cfg); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}
	slog.Info("Migrations completed successfully")

	envConfig := config.LoadEnv()
	slog.Info("Environment loaded", "environment", envConfig.Environment.String())
	if err := SetupRoutes(app, envConfig, cfg); err != nil {
		slog.Error("Failed to setup routes", "error", err)
		return err
	}

	addr := cfg.Server.Address()
	slog.Info("Server starting",
		"address", addr,
		"app", cfg.App.Name,
		"version", cfg.App.Version,
	)
	if err := app.Listen(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		return err
	}

	return nil
}

// newApp builds the Fiber app with the error envelope, security headers,
// rate limiting and CORS. Routes are registered separately.
func newApp(cfg *config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:               1 * 1024 * 1024,
		ProxyHeader:             cfg.ProxyHeader,
		EnableTrustedProxyCheck: cfg.ProxyHeader != "",
		TrustedProxies:          cfg.TrustedProxies,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var apiErr *utils.APIError
			if errors.As(err, &apiErr) {
				return utils.ErrorResponse(c, apiErr)
			}

			var e *fiber.Error
			if errors.As(err, &e) {
				return utils.ErrorResponse(c, utils.NewAPIError(
					"HTTP_ERROR",
					e.Message,
					e.Code,
				))
			}

			slog.Error("Unhandled request error", "error", err, "path", c.Path())
			return utils.ErrorResponse(c, utils.ErrInternalServer)
		},
	})

	app.Use(helmet.New())

	if cfg.RateLimit.Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.Max,
			Expiration: time.Duration(cfg.RateLimit.Expiration) * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return utils.ErrorResponse(c, utils.NewAPIError(
					"TOO_MANY_REQUESTS",
					"Too many requests, please try again later.",
					fiber.StatusTooManyRequests,
				))
			},
		}))
	}

	if len(cfg.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
			ExposeHeaders:    "Content-Length",
			MaxAge:           3600,
		}))
	}

	return app
}

func initLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
