package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSourceURL = "https://data.melbourne.vic.gov.au/api/v2/catalog/datasets/" +
		"on-street-parking-bay-sensors/exports/csv" +
		"?delimiter=%2C&timezone=Australia%2FMelbourne"
	defaultCataloguePath = "data/melbourne_parking_data.csv"
	defaultPort          = 8080
	defaultFetchTimeout  = 60 * time.Second
	defaultStoreTimeout  = 30 * time.Second
	defaultCacheTTL      = 30 * time.Second
	defaultZonesLimit    = 1000
)

// Config holds environment-driven settings shared by the api, watcher and
// catalogue loader binaries.
type Config struct {
	DatabaseURL   string
	Port          int
	SourceURL     string
	SourceFile    string
	CataloguePath string
	SyncInterval  time.Duration
	FetchTimeout  time.Duration
	StoreTimeout  time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	ZonesLimit    int
	DryRun        bool
}

// Load reads configuration from environment variables (optionally .env).
// An empty DATABASE_URL selects the in-memory zone store.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:          defaultPort,
		SourceURL:     defaultSourceURL,
		CataloguePath: defaultCataloguePath,
		FetchTimeout:  defaultFetchTimeout,
		StoreTimeout:  defaultStoreTimeout,
		CacheTTL:      defaultCacheTTL,
		ZonesLimit:    defaultZonesLimit,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("SENSOR_SOURCE_URL")); v != "" {
		cfg.SourceURL = v
	}
	cfg.SourceFile = strings.TrimSpace(os.Getenv("SENSOR_SOURCE_FILE"))

	if v := strings.TrimSpace(os.Getenv("CATALOGUE_PATH")); v != "" {
		cfg.CataloguePath = v
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	var err error
	if cfg.SyncInterval, err = durationEnv("SYNC_INTERVAL", 0); err != nil {
		return cfg, err
	}
	if cfg.SyncInterval < 0 {
		return cfg, fmt.Errorf("invalid SYNC_INTERVAL: must not be negative")
	}
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return cfg, err
	}
	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", cfg.StoreTimeout); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid REDIS_DB: %s", v)
		}
		cfg.RedisDB = n
	}

	if v := strings.TrimSpace(os.Getenv("ZONES_RESULT_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid ZONES_RESULT_LIMIT: %s", v)
		}
		cfg.ZonesLimit = n
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UsesMemoryStore reports whether no database is configured.
func (c Config) UsesMemoryStore() bool {
	return c.DatabaseURL == ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
