package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/config"
	"github.com/meikuraledutech/workflow/memory"
	"github.com/meikuraledutech/workflow/postgres"
	"github.com/meikuraledutech/workflow/sqlite"
)

// openStore connects the configured backend and makes sure its tables exist.
func openStore(ctx context.Context, cfg config.Config) (workflow.Store, func(), error) {
	var (
		store   workflow.Store
		closeFn func()
	)
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		store, closeFn = postgres.New(pool), pool.Close
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { s.Close() }
	default:
		store, closeFn = memory.New(), func() {}
	}

	if err := store.CreateSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("schema: %w", err)
	}
	return store, closeFn, nil
}
