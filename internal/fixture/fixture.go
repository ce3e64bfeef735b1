// Package fixture creates lookup databases with the reference schema.
//
// The schema and a small set of reference rows are versioned goose
// migrations; tests and the init-db command apply them to a fresh SQLite file.
package fixture

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migration versions.
const (
	// VersionSchema creates the empty lookup tables.
	VersionSchema int64 = 1
	// VersionReference fills the tables with reference rows.
	VersionReference int64 = 2
)

// Create creates (or upgrades) the SQLite database at path and migrates it up
// to version.
func Create(ctx context.Context, path string, version int64) (rerr error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer func() { rerr = errors.Join(rerr, db.Close()) }()
	return Migrate(ctx, db, version)
}

// Migrate applies the embedded migrations to db up to version.
func Migrate(ctx context.Context, db *sql.DB, version int64) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("fixture: migration provider: %w", err)
	}
	if _, err := p.UpTo(ctx, version); err != nil {
		return fmt.Errorf("fixture: migrate to %d: %w", version, err)
	}
	return nil
}

// Exec runs statements against the SQLite database at path, in order.
// Tests use it to shape a fixture beyond the reference rows.
func Exec(ctx context.Context, path string, stmts ...string) (rerr error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer func() { rerr = errors.Join(rerr, db.Close()) }()
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("fixture: %q: %w", s, err)
		}
	}
	return nil
}
