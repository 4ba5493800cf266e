package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversions (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		assets_total INTEGER NOT NULL DEFAULT 0,
		assets_localized INTEGER NOT NULL DEFAULT 0,
		assets_failed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		converted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS failed_assets (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		failure_reason TEXT NOT NULL DEFAULT '',
		last_attempt_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		attempt_count INTEGER NOT NULL DEFAULT 1
	);`,
	`CREATE INDEX IF NOT EXISTS failed_assets_last_attempt_idx ON failed_assets (last_attempt_timestamp DESC);`,
}

// EnsureSchema creates the ledger tables when they are missing.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
