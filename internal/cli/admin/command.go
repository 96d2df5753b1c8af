package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/config"
	"github.com/Anvoria/sessionly/internal/database"
	"github.com/Anvoria/sessionly/internal/domain/user"
	"github.com/Anvoria/sessionly/internal/migrations"
)

// Command implements the admin management command
type Command struct{}

func (c *Command) Name() string {
	return "admin"
}

func (c *Command) Description() string {
	return "Administration tasks (init-root)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcmd := args[0]
	switch subcmd {
	case "init-root":
		return c.runInitRoot(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: sessionly-cli admin <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  init-root   Create the first Admin account\n")
}

func (c *Command) runInitRoot(args []string) error {
	fs := flag.NewFlagSet("init-root", flag.ContinueOnError)
	username := fs.String("username", "admin", "Admin username")
	password := fs.String("password", "", "Admin password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		return fmt.Errorf("password is required")
	}

	envConfig := config.LoadEnv()
	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := database.ConnectDB(cfg); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = database.CloseDB() }()

	if err := migrations.RunMigrations(cfg); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	users := user.NewService(user.NewRepository(database.DB))
	created, err := InitRoot(context.Background(), users, *username, *password)
	if err != nil {
		return err
	}
	if !created {
		slog.Info("Root user already exists", "username", *username)
		return nil
	}

	slog.Info("Root user created", "username", *username)
	return nil
}

// InitRoot creates an Admin account unless the username is already taken by an Admin.
// It reports whether a new account was created.
func InitRoot(ctx context.Context, users user.Service, username, password string) (bool, error) {
	existing, err := users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			return false, fmt.Errorf("account %q exists and is not an admin", username)
		}
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("failed to look up %q: %w", username, err)
	}

	if _, err := users.Register(ctx, user.RegisterRequest{
		Username: username,
		Password: password,
		Role:     user.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("failed to create root user: %w", err)
	}
	return true, nil
}
