package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yieldScope/internal/cache"
	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/storage/postgres"
	"yieldScope/internal/telemetry"
)

// env bundles the collaborators shared by fetch and compute.
type env struct {
	client  *chain.Client
	metrics *telemetry.FetchMetrics
	pg      *postgres.Store
	closers []func()
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func openEnv(ctx context.Context, cfg config.FetchConfig, logger *zap.Logger) (*env, error) {
	e := &env{metrics: telemetry.NewFetchMetrics()}

	var store cache.Store
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.closers = append(e.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			e.Close()
			return nil, err
		}
		e.pg = pg
		store = pg
		logger.Info("cache backend", zap.String("kind", "postgres"), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	} else {
		sqlite, err := cache.OpenSQLite(cfg.CachePath())
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() {
			if err := sqlite.Close(); err != nil {
				logger.Warn("close cache", zap.Error(err))
			}
		})
		store = sqlite
		logger.Info("cache backend", zap.String("kind", "sqlite"), zap.String("path", cfg.CachePath()))
	}

	e.client = chain.NewClient(cfg.Client(), store, e.metrics, logger)
	return e, nil
}

// flushMetrics writes the fetch metrics textfile when one is configured.
func (e *env) flushMetrics(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := e.metrics.WriteTextfile(path); err != nil {
		logger.Warn("metrics textfile", zap.Error(err))
		return
	}
	logger.Info("metrics textfile written", zap.String("path", path))
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
