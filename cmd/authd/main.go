// Command authd serves the login endpoint and the token gated user routes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/goliatone/go-auth-gate/activitymap"
	"github.com/goliatone/go-auth-gate/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, "authd:", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	logger := auth.NewLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := auth.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db, auth.WithRepositoryLogger(logger))
	repo.MustValidate()

	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	if seed := cfg.Database.SeedFile; seed != "" {
		if err := repo.Seed(ctx, os.DirFS(filepath.Dir(seed)), filepath.Base(seed)); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokenService(cfg, auth.WithTokenLogger(logger))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	comparer, err := auth.NewSecretComparer(cfg.GetPasswordScheme())
	if err != nil {
		return err
	}
	if cfg.GetPasswordScheme() != auth.PasswordSchemeBcrypt {
		logger.Warn("stored secrets are compared as plain text", "password_scheme", cfg.GetPasswordScheme())
	}

	provider := auth.NewUserProvider(repo.Users(),
		auth.WithSecretComparer(comparer),
		auth.WithUserProviderLogger(logger),
	)

	sinks := []auth.ActivitySink{auth.NewLoggingActivitySink(logger)}
	if path := cfg.Log.AuditPath; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, activitymap.NewWriterSink(f))
	}

	auther := auth.NewAuthenticator(provider, tokens,
		auth.WithLogger(logger),
		auth.WithActivitySink(auth.NewMultiActivitySink(sinks...)),
	)

	controller := auth.NewAuthController(
		auth.WithAuthenticator(auther),
		auth.WithUserDirectory(repo.Users()),
		auth.WithControllerLogger(logger),
		auth.WithContextKey(cfg.GetContextKey()),
	)

	app := fiber.New(fiber.Config{
		AppName:               "authd",
		DisableStartupMessage: true,
		ErrorHandler:          auth.HTTPErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	auth.RegisterRoutes(app, controller, auth.ProtectedRoute(cfg, tokens, logger,
		func(c *fiber.Ctx, claims auth.Claims) error {
			logger.Debug("request authorized", "sub", claims.Subject(), "path", c.Path())
			return nil
		},
	))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "issuer", cfg.GetIssuer())
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
