// Package pg provides PostgreSQL connectivity for the notification status store
// using the pgx/v5 driver.
//
// It exposes three pieces:
//
//   - Config, populated from PG_* environment variables.
//   - Connect, which opens a *pgxpool.Pool and retries until the database answers a ping.
//   - Migrate, which runs goose migrations from an fs.FS against the same pool.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations, "migrations", cfg, slog.Default()); err != nil {
//		return err
//	}
//
// # Error Handling
//
// All errors wrap one of the package sentinels (ErrFailedToOpenDBConnection,
// ErrFailedToApplyMigrations, ...) and can be checked with errors.Is.
// IsNotFoundError helps callers map pgx.ErrNoRows to their own not-found errors.
package pg
