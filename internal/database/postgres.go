package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var DB *pgxpool.Pool

type PoolOptions struct {
	MaxConns         int32
	StatementTimeout time.Duration
}

// PoolConfig builds the pool settings. Sessions run in UTC because chat
// windows and the sweeper compare scheduled_at against the server clock, and a
// statement timeout keeps a stuck wallet or settlement lock from pinning a
// connection.
func PoolConfig(dbURL string, opts PoolOptions) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = min(2, config.MaxConns)
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 15 * time.Minute
	config.HealthCheckPeriod = time.Minute

	runtime := config.ConnConfig.RuntimeParams
	runtime["application_name"] = "hireveno-back"
	runtime["timezone"] = "UTC"
	if opts.StatementTimeout > 0 {
		runtime["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}
	return config, nil
}

func ConnectDB(ctx context.Context, dbURL string, opts PoolOptions, logger zerolog.Logger) error {
	config, err := PoolConfig(dbURL, opts)
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	DB = pool

	logger.Info().
		Int32("max_conns", config.MaxConns).
		Str("statement_timeout", config.ConnConfig.RuntimeParams["statement_timeout"]+"ms").
		Msg("connected to PostgreSQL")
	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
