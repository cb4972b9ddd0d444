package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all reel tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		raw_yaml     TEXT NOT NULL,
		speed        REAL NOT NULL DEFAULT 1,
		persist      TEXT NOT NULL DEFAULT '',
		items        TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_scenarios_name ON scenarios(name)`,
	// Re-pushing identical YAML should land on the existing row.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_scenarios_content_hash ON scenarios(content_hash) WHERE content_hash != ''`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
