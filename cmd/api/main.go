package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/02loveslollipop/parkwatch/internal/catalogue"
	"github.com/02loveslollipop/parkwatch/internal/config"
	"github.com/02loveslollipop/parkwatch/internal/db"
	httpserver "github.com/02loveslollipop/parkwatch/internal/http"
	"github.com/02loveslollipop/parkwatch/internal/ingest"
	"github.com/02loveslollipop/parkwatch/internal/logger"
	"github.com/02loveslollipop/parkwatch/internal/query"
)

func main() {
	l := logger.Setup()

	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.UsesMemoryStore() {
		l.Warn("memory_store", "reason", "DATABASE_URL not set")
		res, err := catalogue.LoadFile(ctx, store, cfg.CataloguePath)
		if err != nil {
			l.Warn("catalogue_load_skipped", "path", cfg.CataloguePath, "err", err)
		} else {
			l.Info("catalogue_loaded", "zones", res.Loaded, "skipped", res.Skipped)
		}
	}

	opts := []query.Option{query.WithLimit(cfg.ZonesLimit)}
	rc, err := query.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	switch {
	case err != nil:
		l.Error("redis_ping_error", "addr", cfg.RedisAddr, "err", err)
	case rc == nil:
		l.Info("redis_disabled")
	default:
		defer rc.Close()
		opts = append(opts, query.WithCache(query.NewRedisCache(rc), cfg.CacheTTL))
		l.Info("redis_ping_ok", "addr", cfg.RedisAddr)
	}

	srv := httpserver.New(cfg, query.NewService(store, opts...))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("api_listen", "addr", cfg.ListenAddr())
		return srv.Run(gctx)
	})

	if cfg.SyncInterval > 0 {
		orch := ingest.New(ingest.NewSource(cfg), store, ingest.Options{
			FetchTimeout: cfg.FetchTimeout,
			StoreTimeout: cfg.StoreTimeout,
			DryRun:       cfg.DryRun,
			Logger:       l,
		})
		g.Go(func() error { return orch.Run(gctx, cfg.SyncInterval) })
	} else if cfg.UsesMemoryStore() {
		l.Warn("sync_disabled", "reason", "SYNC_INTERVAL not set; memory store will not receive availability")
	}

	if err := g.Wait(); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("api_stopped")
}
