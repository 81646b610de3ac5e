package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

// ZoneStore is the shared zone state written by sync cycles and read by the
// query services. Every zone write is atomic: readers never see
// available_spots and latest_update from different writes. Revision
// advances with every write call that changes at least one zone.
type ZoneStore interface {
	UpsertStatic(ctx context.Context, zoneID string, attrs models.ZoneAttrs) error
	UpsertDynamic(ctx context.Context, zoneID string, available int, ts time.Time) error
	ApplyAggregates(ctx context.Context, aggregates map[string]models.ZoneAggregate) (int, error)
	ZonesInBBox(ctx context.Context, bbox models.BBox, limit int) ([]models.Zone, error)
	LatestOverallUpdate(ctx context.Context) (*time.Time, error)
	CountWithKnownAvailability(ctx context.Context) (int, error)
	Revision(ctx context.Context) (int64, error)
	Close()
}

// Store is the PostgreSQL-backed ZoneStore.
type Store struct {
	pool *pgxpool.Pool
}

var _ ZoneStore = (*Store)(nil)

// New creates a Store backed by a pgx pool and checks connectivity.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const zonesInBBoxSQL = `
    SELECT zone_id, street_name, lat, lon, total_spots, available_spots, latest_update
    FROM parking.zones
    WHERE lat IS NOT NULL AND lon IS NOT NULL
      AND lon >= $1 AND lon <= $3
      AND lat >= $2 AND lat <= $4
    ORDER BY zone_id
    LIMIT $5
`

// ZonesInBBox returns zones whose coordinates fall inside the inclusive box,
// ordered by zone id. A non-positive limit returns every match.
func (s *Store) ZonesInBBox(ctx context.Context, bbox models.BBox, limit int) ([]models.Zone, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, zonesInBBoxSQL, bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := make([]models.Zone, 0)
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(
			&z.ZoneID,
			&z.StreetName,
			&z.Lat,
			&z.Lon,
			&z.TotalSpots,
			&z.AvailableSpots,
			&z.LatestUpdate,
		); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// LatestOverallUpdate returns the newest latest_update across all zones, or
// nil when no zone has been reconciled.
func (s *Store) LatestOverallUpdate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT MAX(latest_update) FROM parking.zones`).Scan(&latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// CountWithKnownAvailability counts zones whose available_spots is set.
func (s *Store) CountWithKnownAvailability(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM parking.zones WHERE available_spots IS NOT NULL`).Scan(&n)
	return n, err
}

// Revision returns the write counter bumped by every upsert batch.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.pool.QueryRow(ctx, `SELECT revision FROM parking.zones_revision`).Scan(&rev)
	return rev, err
}
