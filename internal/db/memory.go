package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

// MemoryStore is an in-process ZoneStore for single-binary deployments and
// tests. One RW mutex serializes writers against readers, and zone values
// are replaced wholesale so a reader's copy never changes underneath it.
type MemoryStore struct {
	mu       sync.RWMutex
	zones    map[string]models.Zone
	revision int64
}

var _ ZoneStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{zones: make(map[string]models.Zone)}
}

// Close is a no-op.
func (m *MemoryStore) Close() {}

func (m *MemoryStore) UpsertStatic(ctx context.Context, zoneID string, attrs models.ZoneAttrs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	z, ok := m.zones[zoneID]
	if !ok {
		z = models.Zone{ZoneID: zoneID}
	}
	z.StreetName = copyPtr(attrs.StreetName)
	z.Lat = copyPtr(attrs.Lat)
	z.Lon = copyPtr(attrs.Lon)
	z.TotalSpots = copyPtr(attrs.TotalSpots)
	if z.AvailableSpots == nil {
		z.AvailableSpots = copyPtr(attrs.AvailableSpots)
	}
	m.zones[zoneID] = z
	m.revision++
	return nil
}

func (m *MemoryStore) UpsertDynamic(ctx context.Context, zoneID string, available int, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setDynamic(zoneID, available, ts)
	m.revision++
	return nil
}

// ApplyAggregates writes all aggregates under one lock acquisition.
func (m *MemoryStore) ApplyAggregates(ctx context.Context, aggregates map[string]models.ZoneAggregate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(aggregates) == 0 {
		return 0, nil
	}
	for id, agg := range aggregates {
		m.setDynamic(id, agg.Available, agg.LatestTS)
	}
	m.revision++
	return len(aggregates), nil
}

func (m *MemoryStore) setDynamic(zoneID string, available int, ts time.Time) {
	z, ok := m.zones[zoneID]
	if !ok {
		z = models.Zone{ZoneID: zoneID}
	}
	z.AvailableSpots = &available
	z.LatestUpdate = &ts
	m.zones[zoneID] = z
}

func (m *MemoryStore) ZonesInBBox(ctx context.Context, bbox models.BBox, limit int) ([]models.Zone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.Zone, 0)
	for _, z := range m.zones {
		if !z.HasCoords() || !bbox.Contains(*z.Lon, *z.Lat) {
			continue
		}
		out = append(out, z)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) LatestOverallUpdate(ctx context.Context) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *time.Time
	for _, z := range m.zones {
		if z.LatestUpdate == nil {
			continue
		}
		if latest == nil || z.LatestUpdate.After(*latest) {
			latest = z.LatestUpdate
		}
	}
	return copyPtr(latest), nil
}

func (m *MemoryStore) CountWithKnownAvailability(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, z := range m.zones {
		if z.AvailableSpots != nil {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Revision(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision, nil
}

// Get returns a copy of one zone.
func (m *MemoryStore) Get(zoneID string) (models.Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[zoneID]
	return z, ok
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
