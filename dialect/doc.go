// Package dialect names the database dialects a lookup database may live in
// and defines the read-only Driver the schema reader talks to.
//
// # Supported Dialects
//
//	dialect.SQLite   = "sqlite"   // default, the EKX master database file
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//
// # Driver Interface
//
//	type Driver interface {
//	    Query(ctx context.Context, query string, args, v any) error
//	    Close() error
//	    Dialect() string
//	}
//
// The generator never writes to the lookup database, so the interface has no
// Exec or transaction methods.
package dialect
