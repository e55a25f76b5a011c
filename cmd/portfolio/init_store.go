package main

import (
	"errors"
	"fmt"
	"log/slog"

	"portfolio-ai/internal/adapter/store"
	"portfolio-ai/internal/infra/config"
)

// storeComponents pairs the SQLite store with its read-through cache. Reads
// go through Cached; writes and health checks use SQLite directly.
type storeComponents struct {
	SQLite *store.SQLiteStore
	Cached *store.Cached
}

func initStore(cfg config.StoreConfig, log *slog.Logger) (*storeComponents, error) {
	sqlite, err := store.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	log.Info("store opened", "path", cfg.Path, "cache_duration", cfg.CacheDuration)
	return &storeComponents{
		SQLite: sqlite,
		Cached: store.NewCached(sqlite, cfg.CacheDuration),
	}, nil
}

func (s *storeComponents) Close() error {
	if s == nil || s.SQLite == nil {
		return errors.New("store not initialized")
	}
	return s.SQLite.Close()
}
