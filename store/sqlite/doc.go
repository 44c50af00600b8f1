// Package sqlite stores repair trails in a SQLite database.
//
// Trails live in one table (default "trails") keyed by trail ID and indexed by
// session. Attempts, the decoded record and metadata are stored as JSON text.
//
//	trails, err := sqlite.NewSqliteTrailStore(sqlite.SqliteOptions{
//		Path: "./trails.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer trails.Close()
//
// The driver is github.com/mattn/go-sqlite3, which requires cgo.
package sqlite
