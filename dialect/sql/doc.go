// Package sql provides the database/sql backed, read-only dialect.Driver used
// to read the lookup tables.
//
// # Opening a database
//
//	drv, err := sql.Open(ctx, dialect.SQLite, "EkxSqliteMaster.db")
//	if err != nil {
//	    // err is an *ekxgen.ConnectionError
//	}
//	defer drv.Close()
//
// SQLite sources are opened as URI filenames with mode=ro, and a missing file
// is reported instead of silently creating an empty database. Postgres sessions
// are made read-only through session variables, see ReadOnly.
//
// # Querying
//
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT event_name, event_type_id FROM event_types", []any{}, rows); err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// # Statistics
//
// StatsDriver wraps any dialect.Driver and counts queries, errors and slow
// statements; the generator logs the snapshot at the end of a run.
package sql
