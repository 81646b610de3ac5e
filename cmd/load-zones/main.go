package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/02loveslollipop/parkwatch/internal/catalogue"
	"github.com/02loveslollipop/parkwatch/internal/config"
	"github.com/02loveslollipop/parkwatch/internal/db"
	"github.com/02loveslollipop/parkwatch/internal/logger"
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("load_zones_failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	l := logger.Setup()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("load-zones", pflag.ContinueOnError)
	path := flags.String("file", cfg.CataloguePath, "zone catalogue CSV")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if cfg.UsesMemoryStore() {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout+30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := catalogue.LoadFile(ctx, store, *path)
	if err != nil {
		return err
	}
	l.Info("zones_loaded", "path", *path, "loaded", res.Loaded, "skipped", res.Skipped)
	return nil
}
