package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables the collector writes. Every statement is
// idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		fingerprint TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		origin_id   TEXT NOT NULL,
		symbols     TEXT[] NOT NULL DEFAULT '{}',
		title       TEXT NOT NULL,
		body        TEXT,
		author      TEXT,
		url         TEXT,
		publisher   TEXT,
		score       INTEGER NOT NULL DEFAULT 0,
		comments    INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ,
		fetched_at  TIMESTAMPTZ NOT NULL,
		compound    DOUBLE PRECISION NOT NULL,
		positive    DOUBLE PRECISION NOT NULL,
		neutral     DOUBLE PRECISION NOT NULL,
		negative    DOUBLE PRECISION NOT NULL,
		label       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_source_created_idx ON items (source, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS items_symbols_idx ON items USING GIN (symbols)`,
	`CREATE TABLE IF NOT EXISTS comments (
		comment_id TEXT PRIMARY KEY,
		post_id    TEXT NOT NULL,
		symbols    TEXT[] NOT NULL DEFAULT '{}',
		body       TEXT NOT NULL,
		author     TEXT,
		score      INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ,
		fetched_at TIMESTAMPTZ NOT NULL,
		compound   DOUBLE PRECISION NOT NULL,
		label      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_idx ON comments (post_id)`,
	`CREATE TABLE IF NOT EXISTS entity_results (
		symbol     TEXT PRIMARY KEY,
		run_id     UUID NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		compound   DOUBLE PRECISION,
		label      TEXT,
		flagged    BOOLEAN NOT NULL DEFAULT FALSE,
		risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		result     JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS entity_results_fetched_idx ON entity_results (fetched_at)`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, db Execer) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
