package sensors

import (
	"strconv"
	"strings"
	"time"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

// Row is one raw CSV record keyed by its header names.
type Row map[string]string

// Canonical field names resolved from the feed.
const (
	FieldSensorID  = "sensor_id"
	FieldZoneID    = "zone_id"
	FieldStatus    = "status"
	FieldTimestamp = "timestamp"
	FieldLat       = "lat"
	FieldLon       = "lon"
)

// FieldAliases lists, per canonical field, the header names the export has
// been observed to use. The first alias with a non-empty value wins.
var FieldAliases = map[string][]string{
	FieldSensorID:  {"kerbsideid", "KerbsideID", "kerbside_id"},
	FieldZoneID:    {"zone_number", "Zone_Number", "zone"},
	FieldStatus:    {"status_description", "Status_Description", "status"},
	FieldTimestamp: {"status_timestamp", "Status_Timestamp", "status_time", "timestamp"},
	FieldLat:       {"location_lat", "location.latitude", "Latitude", "lat"},
	FieldLon:       {"location_lon", "location.longitude", "Longitude", "lon"},
}

// Lookup resolves a canonical field against the row, returning the trimmed
// value of the first matching alias or "" when none matches.
func (r Row) Lookup(field string) string {
	for _, name := range FieldAliases[field] {
		if v := strings.TrimSpace(r[name]); v != "" {
			return v
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses the ISO 8601 variants seen in the feed, including
// basic offsets (+1000) and bare dates. Values without an offset are read
// as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToReading maps a raw row onto a SensorReading. Missing or unparseable
// fields are left zero; RawTimestamp always keeps the source text so the
// reconciler can still order readings it could not parse.
func ToReading(r Row) models.SensorReading {
	reading := models.SensorReading{
		SensorID:     r.Lookup(FieldSensorID),
		ZoneID:       r.Lookup(FieldZoneID),
		Status:       r.Lookup(FieldStatus),
		RawTimestamp: r.Lookup(FieldTimestamp),
		Lat:          parseFloat(r.Lookup(FieldLat)),
		Lon:          parseFloat(r.Lookup(FieldLon)),
	}
	if ts, ok := ParseTimestamp(reading.RawTimestamp); ok {
		reading.Timestamp = ts
	}
	return reading
}

// ToReadings converts a batch of rows.
func ToReadings(rows []Row) []models.SensorReading {
	readings := make([]models.SensorReading, 0, len(rows))
	for _, r := range rows {
		readings = append(readings, ToReading(r))
	}
	return readings
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
