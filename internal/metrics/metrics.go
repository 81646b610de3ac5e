package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SyncCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_sync_cycles_total",
		Help: "Sync cycles by outcome (success, aborted, failed)",
	}, []string{"result"})
	SyncDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkwatch_sync_duration_seconds",
		Help:    "Duration of a full fetch/reconcile/store cycle",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})
	SyncZonesUpdated = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parkwatch_sync_zones_updated",
		Help: "Zones written by the last successful cycle",
	})
	ReadingsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_readings_dropped_total",
		Help: "Sensor rows discarded for a missing sensor id or timestamp",
	})
	ZoneQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_zone_queries_total",
		Help: "Bounding-box queries by outcome",
	}, []string{"result"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_cache_hits_total",
		Help: "Bounding-box responses served from redis",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_cache_misses_total",
		Help: "Bounding-box responses not found in redis",
	})
)

func init() {
	prometheus.MustRegister(SyncCyclesTotal)
	prometheus.MustRegister(SyncDurationSeconds)
	prometheus.MustRegister(SyncZonesUpdated)
	prometheus.MustRegister(ReadingsDroppedTotal)
	prometheus.MustRegister(ZoneQueriesTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler exposes every registered collector for scraping.
func Handler() http.Handler { return promhttp.Handler() }
