package db

import (
	"context"
	"fmt"
)

var schemaStmts = []string{
	`CREATE SCHEMA IF NOT EXISTS parking`,
	`CREATE TABLE IF NOT EXISTS parking.zones (
        zone_id TEXT PRIMARY KEY,
        street_name TEXT,
        lat DOUBLE PRECISION,
        lon DOUBLE PRECISION,
        total_spots INTEGER,
        available_spots INTEGER,
        latest_update TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS zones_lon_lat_idx ON parking.zones (lon, lat)`,
	`CREATE INDEX IF NOT EXISTS zones_latest_update_idx ON parking.zones (latest_update)`,
	`CREATE TABLE IF NOT EXISTS parking.zones_revision (
        id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
        revision BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO parking.zones_revision (id, revision) VALUES (TRUE, 0) ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema creates the zones table, its indexes and the single-row
// revision counter if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
