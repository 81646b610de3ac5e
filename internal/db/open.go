package db

import (
	"context"
	"fmt"
)

// Open returns a PostgreSQL store with its schema in place, or an in-memory
// store when databaseURL is empty.
func Open(ctx context.Context, databaseURL string) (ZoneStore, error) {
	if databaseURL == "" {
		return NewMemoryStore(), nil
	}
	store, err := New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
