package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

const upsertStaticSQL = `INSERT INTO parking.zones (zone_id, street_name, lat, lon, total_spots, available_spots, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
ON CONFLICT (zone_id) DO UPDATE
SET street_name = EXCLUDED.street_name,
    lat = EXCLUDED.lat,
    lon = EXCLUDED.lon,
    total_spots = EXCLUDED.total_spots,
    available_spots = COALESCE(parking.zones.available_spots, EXCLUDED.available_spots),
    updated_at = NOW()`

const upsertDynamicSQL = `INSERT INTO parking.zones (zone_id, available_spots, latest_update, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW())
ON CONFLICT (zone_id) DO UPDATE
SET available_spots = EXCLUDED.available_spots,
    latest_update = EXCLUDED.latest_update,
    updated_at = NOW()`

const bumpRevisionSQL = `UPDATE parking.zones_revision SET revision = revision + 1`

// UpsertStatic writes catalogue fields. Availability from the catalogue only
// fills a zone that has none yet.
func (s *Store) UpsertStatic(ctx context.Context, zoneID string, attrs models.ZoneAttrs) error {
	batch := &pgx.Batch{}
	batch.Queue(upsertStaticSQL,
		zoneID, attrs.StreetName, attrs.Lat, attrs.Lon, attrs.TotalSpots, attrs.AvailableSpots)
	if err := s.sendWithRevision(ctx, batch); err != nil {
		return fmt.Errorf("upsert static zone %s: %w", zoneID, err)
	}
	return nil
}

// UpsertStaticBatch writes many catalogue rows in one round trip.
func (s *Store) UpsertStaticBatch(ctx context.Context, zones map[string]models.ZoneAttrs) error {
	if len(zones) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, id := range sortedKeys(zones) {
		a := zones[id]
		batch.Queue(upsertStaticSQL, id, a.StreetName, a.Lat, a.Lon, a.TotalSpots, a.AvailableSpots)
	}
	if err := s.sendWithRevision(ctx, batch); err != nil {
		return fmt.Errorf("upsert static zones: %w", err)
	}
	return nil
}

// UpsertDynamic sets availability and its timestamp, creating the zone with
// empty static fields if it is unknown.
func (s *Store) UpsertDynamic(ctx context.Context, zoneID string, available int, ts time.Time) error {
	batch := &pgx.Batch{}
	batch.Queue(upsertDynamicSQL, zoneID, available, ts)
	if err := s.sendWithRevision(ctx, batch); err != nil {
		return fmt.Errorf("upsert zone %s: %w", zoneID, err)
	}
	return nil
}

// ApplyAggregates writes a cycle's aggregates as one batch. The batch runs in
// a single implicit transaction, so a failure leaves no zone half-applied.
func (s *Store) ApplyAggregates(ctx context.Context, aggregates map[string]models.ZoneAggregate) (int, error) {
	if len(aggregates) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, id := range sortedKeys(aggregates) {
		agg := aggregates[id]
		batch.Queue(upsertDynamicSQL, id, agg.Available, agg.LatestTS)
	}
	if err := s.sendWithRevision(ctx, batch); err != nil {
		return 0, fmt.Errorf("apply zone aggregates: %w", err)
	}
	return len(aggregates), nil
}

// sendWithRevision appends the revision bump to batch and runs it. The
// batch is one implicit transaction, so the counter moves only when every
// zone write lands.
func (s *Store) sendWithRevision(ctx context.Context, batch *pgx.Batch) error {
	batch.Queue(bumpRevisionSQL)
	n := batch.Len()

	res := s.pool.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := res.Exec(); err != nil {
			res.Close()
			return err
		}
	}
	return res.Close()
}

// sortedKeys fixes the write order so concurrent writers lock rows in the
// same sequence.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
