// Package catalogue imports the static zone catalogue: street names,
// coordinates and bay totals that reconciliation never touches.
package catalogue

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/02loveslollipop/parkwatch/internal/models"
	"github.com/02loveslollipop/parkwatch/internal/sensors"
)

// StaticWriter is the part of the zone store the loader needs.
type StaticWriter interface {
	UpsertStatic(ctx context.Context, zoneID string, attrs models.ZoneAttrs) error
}

// batchWriter is implemented by stores that can write the whole catalogue
// in one round trip.
type batchWriter interface {
	UpsertStaticBatch(ctx context.Context, zones map[string]models.ZoneAttrs) error
}

// Result summarizes an import.
type Result struct {
	Loaded  int
	Skipped int
}

// Parse reads catalogue rows keyed by parking_zone. Rows without a zone id
// are skipped; numeric fields that do not parse become nil. A zone listed
// twice keeps its last row.
func Parse(r io.Reader) (map[string]models.ZoneAttrs, int, error) {
	rows, err := sensors.ReadRows(r)
	if err != nil {
		return nil, 0, err
	}

	zones := make(map[string]models.ZoneAttrs, len(rows))
	skipped := 0
	for _, row := range rows {
		zone := strings.TrimSpace(row["parking_zone"])
		if zone == "" {
			skipped++
			continue
		}
		zones[zone] = models.ZoneAttrs{
			StreetName:     optString(row["street_name"]),
			Lat:            optFloat(row["lat"]),
			Lon:            optFloat(row["lon"]),
			TotalSpots:     optInt(row["total_spots"]),
			AvailableSpots: optInt(row["available_spots"]),
		}
	}
	return zones, skipped, nil
}

// LoadFile parses the catalogue at path and upserts every zone.
func LoadFile(ctx context.Context, store StaticWriter, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	return Load(ctx, store, f)
}

// Load parses r and upserts every zone.
func Load(ctx context.Context, store StaticWriter, r io.Reader) (Result, error) {
	zones, skipped, err := Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse catalogue: %w", err)
	}

	if bw, ok := store.(batchWriter); ok {
		if err := bw.UpsertStaticBatch(ctx, zones); err != nil {
			return Result{}, err
		}
		return Result{Loaded: len(zones), Skipped: skipped}, nil
	}

	for id, attrs := range zones {
		if err := store.UpsertStatic(ctx, id, attrs); err != nil {
			return Result{}, err
		}
	}
	return Result{Loaded: len(zones), Skipped: skipped}, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// optInt accepts float text such as "12.0" and truncates it.
func optInt(s string) *int {
	f := optFloat(s)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	n := int(*f)
	return &n
}
