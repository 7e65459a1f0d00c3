package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/pageza/recipebox/backend/config"
)

// pingTimeout bounds a single readiness attempt.
const pingTimeout = 5 * time.Second

// PingFunc reports whether the database accepts connections.
type PingFunc func(ctx context.Context) error

// WaitForDB calls ping until it succeeds, sleeping interval after every
// failure. There is no attempt limit; only ctx stops it early. It returns
// the number of attempts made.
func WaitForDB(ctx context.Context, ping PingFunc, interval time.Duration) (int, error) {
	slog.Info("waiting for database")

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := ping(pingCtx)
		cancel()
		if err == nil {
			slog.Info("database available", "attempts", attempt)
			return attempt, nil
		}

		slog.Warn("database unavailable, waiting",
			"attempt", attempt,
			"retry_in", interval.String(),
			"error", err,
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

// PostgresPinger opens a fresh lib/pq connection on every attempt so a
// half-started server is never cached in a pool.
func PostgresPinger(dsn string) PingFunc {
	return func(ctx context.Context) error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.PingContext(ctx)
	}
}

// PingerFor returns the readiness check for the configured driver. A sqlite
// file is always available.
func PingerFor(cfg *config.Config) PingFunc {
	if cfg.DBDriver == config.DriverSQLite {
		return func(context.Context) error { return nil }
	}
	return PostgresPinger(cfg.DSN())
}
