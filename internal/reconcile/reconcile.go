// Package reconcile reduces a batch of sensor readings to one state per
// sensor and folds those states into per-zone availability.
package reconcile

import (
	"strings"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

// Stats describes what happened to a batch during reconciliation.
type Stats struct {
	Readings        int
	Dropped         int
	Unparsed        int
	Sensors         int
	SensorsNoZone   int
	ZonesAggregated int
}

// Latest keeps the most recent reading per sensor. Readings without a sensor
// id or without any timestamp text are dropped. On equal timestamps the
// reading seen first is kept.
//
// A reading whose timestamp text did not parse is kept but ranks below every
// parsed reading; two such readings for one sensor compare by their raw text.
func Latest(readings []models.SensorReading) (map[string]models.SensorReading, int) {
	latest := make(map[string]models.SensorReading, len(readings))
	dropped := 0
	for _, r := range readings {
		if r.SensorID == "" || !hasTimestamp(r) {
			dropped++
			continue
		}
		prev, ok := latest[r.SensorID]
		if !ok || newer(r, prev) {
			latest[r.SensorID] = r
		}
	}
	return latest, dropped
}

func hasTimestamp(r models.SensorReading) bool {
	return !r.Timestamp.IsZero() || strings.TrimSpace(r.RawTimestamp) != ""
}

// newer reports whether r strictly supersedes prev.
func newer(r, prev models.SensorReading) bool {
	switch {
	case !r.Timestamp.IsZero() && !prev.Timestamp.IsZero():
		return r.Timestamp.After(prev.Timestamp)
	case !r.Timestamp.IsZero():
		return true
	case !prev.Timestamp.IsZero():
		return false
	default:
		return strings.TrimSpace(r.RawTimestamp) > strings.TrimSpace(prev.RawTimestamp)
	}
}

// Aggregate folds per-sensor state into per-zone counts. Sensors without a
// zone are skipped, so every returned aggregate has Total >= 1. LatestTS only
// reflects parsed timestamps and stays zero for a zone with none.
func Aggregate(latest map[string]models.SensorReading) map[string]models.ZoneAggregate {
	zones := make(map[string]models.ZoneAggregate)
	for _, r := range latest {
		if r.ZoneID == "" {
			continue
		}
		agg, ok := zones[r.ZoneID]
		if !ok {
			agg.LatestTS = r.Timestamp
		}
		agg.Total++
		if r.Unoccupied() {
			agg.Available++
		}
		if r.Timestamp.After(agg.LatestTS) {
			agg.LatestTS = r.Timestamp
		}
		zones[r.ZoneID] = agg
	}
	return zones
}

// Reconcile runs Latest then Aggregate.
func Reconcile(readings []models.SensorReading) map[string]models.ZoneAggregate {
	zones, _ := ReconcileWithStats(readings)
	return zones
}

// ReconcileWithStats is Reconcile plus batch counters for logging.
func ReconcileWithStats(readings []models.SensorReading) (map[string]models.ZoneAggregate, Stats) {
	latest, dropped := Latest(readings)
	zones := Aggregate(latest)

	stats := Stats{
		Readings:        len(readings),
		Dropped:         dropped,
		Sensors:         len(latest),
		ZonesAggregated: len(zones),
	}
	for _, r := range latest {
		if r.ZoneID == "" {
			stats.SensorsNoZone++
		}
		if r.Timestamp.IsZero() {
			stats.Unparsed++
		}
	}
	return zones, stats
}
