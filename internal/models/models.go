package models

import (
	"strings"
	"time"
)

// SensorReading is one normalized row from the sensor feed.
type SensorReading struct {
	SensorID     string
	ZoneID       string
	Status       string
	Timestamp    time.Time
	RawTimestamp string
	Lat          *float64
	Lon          *float64
}

// Unoccupied reports whether the reading marks its bay as free.
func (r SensorReading) Unoccupied() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "unoccupied")
}

// ZoneAggregate is the per-cycle availability summary for one zone.
type ZoneAggregate struct {
	Available int
	Total     int
	LatestTS  time.Time
}

// ZoneAttrs captures the static catalogue fields of a zone.
// AvailableSpots only seeds a zone that has no availability yet.
type ZoneAttrs struct {
	StreetName     *string
	Lat            *float64
	Lon            *float64
	TotalSpots     *int
	AvailableSpots *int
}

// Zone is the persisted snapshot of a parking zone.
type Zone struct {
	ZoneID         string
	StreetName     *string
	Lat            *float64
	Lon            *float64
	TotalSpots     *int
	AvailableSpots *int
	LatestUpdate   *time.Time
}

// HasCoords reports whether the zone can take part in spatial queries.
func (z Zone) HasCoords() bool {
	return z.Lat != nil && z.Lon != nil
}

// BBox is an axis-aligned box in (lon, lat) space. Bounds are inclusive.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains reports whether (lon, lat) lies inside the box.
// An inverted box contains nothing.
func (b BBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}
