// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config, retrying until the database
// answers a ping. Migrate applies goose migrations read from an fs.FS, so
// schema files can ship inside the binary via embed. Healthcheck adapts the
// pool to the func(context.Context) error shape used by readiness probes.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors without leaking
// pgconn types into callers.
package pg
