package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/server"
)

const name = "recipebox"

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Recipe API server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error); overrides LOG_LEVEL",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			waitForDBCmd(),
			migrateCmd(),
		},
		// Running without a subcommand serves the API
		Action: runServe,
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Wait for the database, apply migrations and serve the API",
		Action: runServe,
	}
}

func waitForDBCmd() *cli.Command {
	return &cli.Command{
		Name:  "wait-for-db",
		Usage: "Block until the configured database accepts connections",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "pause between attempts; defaults to DB_WAIT_INTERVAL",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			interval := cfg.DBWaitInterval
			if cmd.IsSet("interval") {
				interval = cmd.Duration("interval")
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			_, err = database.WaitForDB(ctx, database.PingerFor(cfg), interval)
			return err
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)
			return database.RunMigrations(db)
		},
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := database.WaitForDB(ctx, database.PingerFor(cfg), cfg.DBWaitInterval); err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := server.New(cfg, db, limiter)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logging.SetDefault(name, version, cfg.LogLevel)
	slog.Debug("configuration loaded",
		"environment", config.GetEnvironment(),
		"db_driver", cfg.DBDriver,
		"addr", cfg.Addr(),
	)
	return cfg, nil
}

// newLimiter returns nil when rate limiting is off. With Redis configured
// the limit is shared across instances; an unreachable Redis falls back to
// a per-process limiter. The returned func releases the Redis connection.
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func(), error) {
	noop := func() {}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, noop, nil
	}

	rlCfg := middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
		KeyPrefix: name + ":rate_limit",
	}

	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg)
		if err == nil {
			closeClient := func() {
				if err := client.Close(); err != nil {
					slog.Warn("failed to close redis client", "error", err)
				}
			}
			return middleware.NewRedisLimiter(client, rlCfg), closeClient, nil
		}
		slog.Warn("redis unavailable, using in-process rate limiter", "error", err)
	}

	return middleware.NewLocalLimiter(rlCfg), noop, nil
}
