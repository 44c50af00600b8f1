// Package store persists repair trails: the attempts, raw outputs, errors and
// outcome of each repair invocation, grouped by a caller-chosen session ID.
//
// Trails are diagnostics. The repair loop saves one per finished invocation
// when a TrailStore is configured, and a failing store never changes the
// loop's result.
//
// # Implementations
//
//   - store/memory: process-local map, for tests and short-lived tools
//   - store/file: one JSON file per trail in a directory
//   - store/redis: Redis strings plus a per-session set index
//   - store/sqlite: a single SQLite table (mattn/go-sqlite3, requires cgo)
//   - store/postgres: a PostgreSQL table with JSONB columns (pgx)
//
// All implementations satisfy TrailStore:
//
//	type TrailStore interface {
//		Save(ctx context.Context, trail *Trail) error
//		Load(ctx context.Context, trailID string) (*Trail, error)
//		List(ctx context.Context, sessionID string) ([]*Trail, error)
//		Delete(ctx context.Context, trailID string) error
//		Clear(ctx context.Context, sessionID string) error
//	}
//
// Load and Delete of an unknown ID return an error wrapping ErrTrailNotFound.
// List of an unknown session returns an empty slice.
//
// # Example
//
//	trails, err := sqlite.NewSqliteTrailStore(sqlite.SqliteOptions{Path: "./trails.db"})
//	if err != nil {
//		return err
//	}
//	defer trails.Close()
//
//	loop, err := repair.New(s, gen, repair.WithTrailStore(trails, "flower-copy"))
package store
