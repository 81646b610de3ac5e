package ingest

import (
	"github.com/02loveslollipop/parkwatch/internal/config"
	"github.com/02loveslollipop/parkwatch/internal/sensors"
)

// NewSource picks the sensor source: a local export file when
// SENSOR_SOURCE_FILE is set, otherwise the HTTP export endpoint.
func NewSource(cfg config.Config) Source {
	if cfg.SourceFile != "" {
		return sensors.FileSource{Path: cfg.SourceFile}
	}
	return sensors.NewClient(cfg.SourceURL, cfg.FetchTimeout)
}
