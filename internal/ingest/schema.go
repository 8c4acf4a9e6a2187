// Package ingest loads flat columnar panel and lineage files into
// PostgreSQL and bootstraps the schema they land in.
package ingest

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the tables and indexes the service reads from.
// Uses IF NOT EXISTS so repeated runs are safe against an existing
// database.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS unit_metrics (
			unit_id TEXT NOT NULL,
			year INT NOT NULL,
			variable TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (unit_id, year, variable)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unit_metrics_year ON unit_metrics(year)`,
		`CREATE TABLE IF NOT EXISTS unit_lineage (
			parent_id TEXT NOT NULL,
			child_id TEXT NOT NULL,
			event_year INT NOT NULL,
			event_type TEXT NOT NULL DEFAULT 'split',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			weight_type TEXT NOT NULL DEFAULT 'area',
			region TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (parent_id, child_id, event_year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unit_lineage_region ON unit_lineage(region)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
