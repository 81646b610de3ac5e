// Package ingest runs sync cycles: fetch the sensor export, reconcile it to
// per-zone availability and write the result to the zone store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/02loveslollipop/parkwatch/internal/logger"
	"github.com/02loveslollipop/parkwatch/internal/metrics"
	"github.com/02loveslollipop/parkwatch/internal/models"
	"github.com/02loveslollipop/parkwatch/internal/reconcile"
	"github.com/02loveslollipop/parkwatch/internal/sensors"
)

var (
	// ErrAborted marks a cycle that stopped before writing anything.
	ErrAborted = errors.New("sync cycle aborted")
	// ErrNoRows is returned when the source yields no data rows.
	ErrNoRows = errors.New("sensor source returned no data rows")
)

const (
	defaultFetchTimeout = 60 * time.Second
	defaultStoreTimeout = 30 * time.Second
)

// Source produces the raw rows of one sensor export.
type Source interface {
	Fetch(ctx context.Context) ([]sensors.Row, error)
}

// Writer applies a cycle's aggregates to the zone store.
type Writer interface {
	ApplyAggregates(ctx context.Context, aggregates map[string]models.ZoneAggregate) (int, error)
}

// Options tunes an Orchestrator. Zero values pick defaults.
type Options struct {
	FetchTimeout time.Duration
	StoreTimeout time.Duration
	DryRun       bool
	Logger       *slog.Logger
}

// CycleResult describes one completed or aborted cycle.
type CycleResult struct {
	ID           string
	Rows         int
	Stats        reconcile.Stats
	ZonesUpdated int
	DryRun       bool
	Duration     time.Duration
}

// Orchestrator drives sync cycles. Cycles never overlap.
type Orchestrator struct {
	source Source
	store  Writer
	opts   Options
	log    *slog.Logger

	mu sync.Mutex
}

// New builds an Orchestrator over source and store.
func New(source Source, store Writer, opts Options) *Orchestrator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	l := opts.Logger
	if l == nil {
		l = logger.L()
	}
	return &Orchestrator{source: source, store: store, opts: opts, log: l}
}

// RunOnce executes a single cycle. Once started, a cycle ignores
// cancellation of ctx and is bounded only by the fetch and store timeouts.
// Fetch failures and empty exports return an error wrapping ErrAborted with
// the store untouched; store failures are returned as-is.
func (o *Orchestrator) RunOnce(ctx context.Context) (CycleResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	res := CycleResult{ID: uuid.NewString(), DryRun: o.opts.DryRun}
	log := o.log.With("cycle", res.ID)
	cycleCtx := context.WithoutCancel(ctx)

	finish := func(result string) {
		res.Duration = time.Since(start)
		metrics.SyncCyclesTotal.WithLabelValues(result).Inc()
		metrics.SyncDurationSeconds.Observe(res.Duration.Seconds())
	}

	fetchCtx, cancel := context.WithTimeout(cycleCtx, o.opts.FetchTimeout)
	rows, err := o.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		finish("aborted")
		return res, fmt.Errorf("%w: fetch: %w", ErrAborted, err)
	}
	res.Rows = len(rows)
	if len(rows) == 0 {
		finish("aborted")
		return res, fmt.Errorf("%w: %w", ErrAborted, ErrNoRows)
	}
	log.Debug("sync_fetched", "rows", len(rows))

	zones, stats := reconcile.ReconcileWithStats(sensors.ToReadings(rows))
	res.Stats = stats
	// Zones whose readings all carried unparseable timestamps are stamped
	// with the cycle start.
	for id, agg := range zones {
		if agg.LatestTS.IsZero() {
			agg.LatestTS = start.UTC()
			zones[id] = agg
		}
	}
	metrics.ReadingsDroppedTotal.Add(float64(stats.Dropped))
	log.Debug("sync_reconciled",
		"readings", stats.Readings,
		"dropped", stats.Dropped,
		"unparsed_ts", stats.Unparsed,
		"sensors", stats.Sensors,
		"sensors_no_zone", stats.SensorsNoZone,
		"zones", stats.ZonesAggregated,
	)

	if o.opts.DryRun {
		for id, agg := range zones {
			log.Debug("dry_run_zone", "zone", id, "available", agg.Available, "total", agg.Total, "latest", agg.LatestTS)
		}
		finish("success")
		return res, nil
	}

	storeCtx, cancel := context.WithTimeout(cycleCtx, o.opts.StoreTimeout)
	n, err := o.store.ApplyAggregates(storeCtx, zones)
	cancel()
	if err != nil {
		finish("failed")
		return res, fmt.Errorf("store aggregates: %w", err)
	}
	res.ZonesUpdated = n
	metrics.SyncZonesUpdated.Set(float64(n))
	finish("success")
	return res, nil
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled. Cancellation is observed only between cycles, and a ctx that is
// already done starts none. Cycle failures are logged and the loop carries
// on.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid sync interval %s", interval)
	}
	if ctx.Err() != nil {
		return nil
	}
	o.log.Info("sync_loop_start", "interval", interval.String())

	o.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			o.log.Info("sync_loop_stop")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				o.log.Info("sync_loop_stop")
				return nil
			}
			o.runLogged(ctx)
		}
	}
}

func (o *Orchestrator) runLogged(ctx context.Context) {
	res, err := o.RunOnce(ctx)
	if err != nil {
		o.log.Error("sync_cycle_error", "cycle", res.ID, "err", err, "duration_ms", res.Duration.Milliseconds())
		return
	}
	o.log.Info("sync_cycle_done",
		"cycle", res.ID,
		"rows", res.Rows,
		"dropped", res.Stats.Dropped,
		"zones", res.ZonesUpdated,
		"dry_run", res.DryRun,
		"duration_ms", res.Duration.Milliseconds(),
	)
}
