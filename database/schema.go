package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS loan_submissions (
		id BIGSERIAL PRIMARY KEY,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS captcha_challenges (
		id TEXT PRIMARY KEY,
		challenge TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS captcha_challenges_expires_at_idx ON captcha_challenges(expires_at)`,
	`CREATE TABLE IF NOT EXISTS pending_deletes (
		id TEXT PRIMARY KEY,
		sheet TEXT NOT NULL,
		row_id INT NOT NULL,
		mobile TEXT NOT NULL DEFAULT '',
		attempts INT NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range schema {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("schema ensure error: %w in stmt: %s", err, s)
		}
	}
	return nil
}
