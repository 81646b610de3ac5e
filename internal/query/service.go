// Package query answers the read side of the API: bounding-box zone lookups
// and the freshness status.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/02loveslollipop/parkwatch/internal/logger"
	"github.com/02loveslollipop/parkwatch/internal/metrics"
	"github.com/02loveslollipop/parkwatch/internal/models"
)

// MaxResults caps a bounding-box response.
const MaxResults = 1000

// Reader is the read side of the zone store.
type Reader interface {
	ZonesInBBox(ctx context.Context, bbox models.BBox, limit int) ([]models.Zone, error)
	LatestOverallUpdate(ctx context.Context) (*time.Time, error)
	CountWithKnownAvailability(ctx context.Context) (int, error)
	Revision(ctx context.Context) (int64, error)
}

// Coords is a zone position.
type Coords struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ZoneResult is one zone in a bounding-box response.
type ZoneResult struct {
	ZoneID         string     `json:"zone_id"`
	Street         *string    `json:"street"`
	Coords         Coords     `json:"coords"`
	TotalSpots     *int       `json:"total_spots"`
	AvailableSpots *int       `json:"available_spots"`
	LatestUpdate   *time.Time `json:"latest_update"`
}

// Status reports data freshness.
type Status struct {
	ServerTime       time.Time  `json:"server_time"`
	LatestUpdateInDB *time.Time `json:"latest_update_in_db"`
	ZonesWithData    int        `json:"zones_with_data"`
	StalenessSeconds *float64   `json:"staleness_seconds"`
}

// Service serves spatial and status queries over a zone store.
type Service struct {
	store Reader
	cache Cache
	ttl   time.Duration
	limit int
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches bounding-box responses for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLimit lowers the result cap. Values outside (0, MaxResults] are ignored.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= MaxResults {
			s.limit = n
		}
	}
}

// WithClock overrides the time source used for server_time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service over store.
func NewService(store Reader, opts ...Option) *Service {
	s := &Service{store: store, limit: MaxResults, now: time.Now, log: logger.L()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ZonesInBBox returns up to the configured cap of zones inside bbox, ordered
// by zone id.
func (s *Service) ZonesInBBox(ctx context.Context, bbox models.BBox) ([]ZoneResult, error) {
	if s.cache == nil {
		return s.zonesFromStore(ctx, bbox)
	}

	// The key carries the store revision, so any zone write retires every
	// cached box.
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("store revision: %w", err)
	}
	key := s.cacheKey(bbox, rev)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("cache_get_error", "key", key, "err", err)
	} else if ok {
		var results []ZoneResult
		if err := json.Unmarshal(raw, &results); err == nil {
			metrics.CacheHitsTotal.Inc()
			return results, nil
		}
		s.log.Warn("cache_decode_error", "key", key)
	}
	metrics.CacheMissesTotal.Inc()

	results, err := s.zonesFromStore(ctx, bbox)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(results); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn("cache_set_error", "key", key, "err", err)
		}
	}
	return results, nil
}

func (s *Service) zonesFromStore(ctx context.Context, bbox models.BBox) ([]ZoneResult, error) {
	zones, err := s.store.ZonesInBBox(ctx, bbox, s.limit)
	if err != nil {
		return nil, fmt.Errorf("zones in bbox: %w", err)
	}
	results := make([]ZoneResult, 0, len(zones))
	for _, z := range zones {
		results = append(results, ZoneResult{
			ZoneID:         z.ZoneID,
			Street:         z.StreetName,
			Coords:         Coords{Lat: z.Lat, Lon: z.Lon},
			TotalSpots:     z.TotalSpots,
			AvailableSpots: z.AvailableSpots,
			LatestUpdate:   z.LatestUpdate,
		})
	}
	return results, nil
}

func (s *Service) cacheKey(b models.BBox, rev int64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("parkwatch:zones:r%d:%s,%s,%s,%s:%d",
		rev, f(b.MinLon), f(b.MinLat), f(b.MaxLon), f(b.MaxLat), s.limit)
}

// Status reports server time, the newest zone update and how many zones
// have availability. Staleness is nil until the first update.
func (s *Service) Status(ctx context.Context) (Status, error) {
	latest, err := s.store.LatestOverallUpdate(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("latest update: %w", err)
	}
	count, err := s.store.CountWithKnownAvailability(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count zones: %w", err)
	}

	st := Status{
		ServerTime:       s.now().UTC(),
		LatestUpdateInDB: latest,
		ZonesWithData:    count,
	}
	if latest != nil {
		stale := st.ServerTime.Sub(*latest).Seconds()
		st.StalenessSeconds = &stale
	}
	return st, nil
}
