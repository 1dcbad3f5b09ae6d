package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS dashboard_sessions (
		id           uuid PRIMARY KEY,
		username     text NOT NULL,
		sealed_token bytea NOT NULL,
		ip           text,
		user_agent   text,
		created_at   timestamptz NOT NULL DEFAULT now(),
		expires_at   timestamptz NOT NULL,
		revoked_at   timestamptz
	);
	CREATE INDEX IF NOT EXISTS dashboard_sessions_expires_at_idx
		ON dashboard_sessions (expires_at);
`

// EnsureSchema creates the sessions table if it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
