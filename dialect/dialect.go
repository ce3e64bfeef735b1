package dialect

import (
	"context"
	"fmt"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Driver is the read-only interface the schema reader issues queries through.
type Driver interface {
	// Query executes a query that returns rows, scanning them into v.
	Query(ctx context.Context, query string, args, v any) error
	// Close releases the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Valid reports whether name is one of the supported dialects.
func Valid(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// Check returns an error if name is not a supported dialect.
func Check(name string) error {
	if !Valid(name) {
		return fmt.Errorf("dialect: unsupported dialect %q; use sqlite, mysql, or postgres", name)
	}
	return nil
}
