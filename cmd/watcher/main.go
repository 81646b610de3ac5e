package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/02loveslollipop/parkwatch/internal/config"
	"github.com/02loveslollipop/parkwatch/internal/db"
	"github.com/02loveslollipop/parkwatch/internal/ingest"
	"github.com/02loveslollipop/parkwatch/internal/logger"
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("watcher_failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	l := logger.Setup()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("watcher", pflag.ContinueOnError)
	loop := flags.Duration("loop", cfg.SyncInterval, "repeat the sync every interval (0 = run once)")
	dryRun := flags.Bool("dry-run", cfg.DryRun, "reconcile without writing to the store")
	sourceFile := flags.String("source-file", cfg.SourceFile, "read sensors from a local CSV export instead of the API")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *loop < 0 {
		return fmt.Errorf("invalid --loop %s", *loop)
	}
	cfg.DryRun = *dryRun
	cfg.SourceFile = *sourceFile

	if cfg.UsesMemoryStore() && !cfg.DryRun {
		return errors.New("DATABASE_URL is required unless --dry-run is set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	orch := ingest.New(ingest.NewSource(cfg), store, ingest.Options{
		FetchTimeout: cfg.FetchTimeout,
		StoreTimeout: cfg.StoreTimeout,
		DryRun:       cfg.DryRun,
		Logger:       l,
	})

	if *loop == 0 {
		res, err := orch.RunOnce(ctx)
		if err != nil {
			return err
		}
		l.Info("sync_complete",
			"cycle", res.ID,
			"rows", res.Rows,
			"dropped", res.Stats.Dropped,
			"zones", res.ZonesUpdated,
			"dry_run", res.DryRun,
		)
		return nil
	}

	l.Info("watcher_loop", "interval", loop.String(), "hint", "Ctrl+C to stop")
	return orch.Run(ctx, *loop)
}
