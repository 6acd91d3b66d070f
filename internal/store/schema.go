// Package store persists simulation runs and their time series to SQLite
// so that plotting collaborators can consume them after the process exits.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the run store.
const schemaV1 = `
-- One row per simulation run
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    policy TEXT NOT NULL,
    nodes INTEGER NOT NULL,
    region_size REAL NOT NULL,
    radius REAL NOT NULL,            -- 0 = unlimited
    alternate_radius REAL NOT NULL,  -- 0 = static topology
    max_neighbors INTEGER NOT NULL,  -- 0 = uncapped
    seed INTEGER NOT NULL,
    iterations INTEGER NOT NULL
);

-- One row per time step (scalar reading, planar position)
CREATE TABLE IF NOT EXISTS samples (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    target_reading REAL NOT NULL,
    target_x REAL NOT NULL,
    target_y REAL NOT NULL,
    mean REAL NOT NULL,
    stddev REAL NOT NULL,
    max_node_reading REAL NOT NULL,
    min_node_reading REAL NOT NULL,
    radius REAL NOT NULL,
    PRIMARY KEY (run_id, step)
);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates all tables and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
