package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subsync/pkg/config"
	"github.com/dmitrymomot/subsync/pkg/httpserver"
	"github.com/dmitrymomot/subsync/pkg/mongo"
	"github.com/dmitrymomot/subsync/pkg/pg"
	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/profile/mongostore"
	"github.com/dmitrymomot/subsync/pkg/profile/pgstore"
	"github.com/dmitrymomot/subsync/pkg/profile/pgstore/migrations"
	"github.com/dmitrymomot/subsync/pkg/profile/sqlitestore"
)

const profilesCollection = "profiles"

// openedStore is a connected profile store with its readiness check and
// cleanup.
type openedStore struct {
	profile.Store
	check httpserver.Check
	close func(context.Context)
}

// openStore connects the backend selected by driver. When migrate is set,
// schema changes are applied (postgres honours PG_AUTO_MIGRATE as well).
func openStore(ctx context.Context, driver string, migrate bool, log *slog.Logger) (*openedStore, error) {
	switch driver {
	case driverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if migrate || cfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &openedStore{
			Store: pgstore.New(pool),
			check: httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			close: func(context.Context) { pool.Close() },
		}, nil

	case driverMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(db, profilesCollection)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &openedStore{
			Store: store,
			check: httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())},
			close: func(ctx context.Context) {
				if err := db.Client().Disconnect(ctx); err != nil {
					log.ErrorContext(ctx, "mongo disconnect failed", slog.Any("error", err))
				}
			},
		}, nil

	case driverSQLite:
		var cfg sqlitestore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		store, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return &openedStore{
			Store: store,
			check: httpserver.Check{Name: "sqlite", Fn: store.Healthcheck},
			close: func(ctx context.Context) {
				if err := store.Close(); err != nil {
					log.ErrorContext(ctx, "sqlite close failed", slog.Any("error", err))
				}
			},
		}, nil

	case driverMemory, "":
		log.WarnContext(ctx, "using in-memory profile store; state is lost on restart")
		return &openedStore{
			Store: profile.NewMemoryStore(),
			check: httpserver.Check{Name: "memory", Fn: func(context.Context) error { return nil }},
			close: func(context.Context) {},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
	}
}
