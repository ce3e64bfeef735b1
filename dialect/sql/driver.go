package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Driver is a read-only dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	db      *sql.DB
	dialect string
}

// NewDriver creates a new Driver with the given database handle and dialect.
func NewDriver(dialect string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db, dialect}, db: db, dialect: dialect}
}

// Open opens the lookup database read-only and verifies the connection with a
// ping. Any failure is reported as an *ekxgen.ConnectionError before the
// caller gets a chance to touch an output artifact.
func Open(ctx context.Context, dialectName, source string) (*Driver, error) {
	if err := dialect.Check(dialectName); err != nil {
		return nil, ekxgen.NewConnectionError(dialectName, source, err)
	}
	if dialectName == dialect.SQLite {
		// sqlite would happily create an empty database in place of a missing one.
		if _, err := os.Stat(SQLiteFile(source)); err != nil {
			return nil, ekxgen.NewConnectionError(dialectName, source, err)
		}
	}
	db, err := sql.Open(dialectName, DSN(dialectName, source))
	if err != nil {
		return nil, ekxgen.NewConnectionError(dialectName, source, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, ekxgen.NewConnectionError(dialectName, source, errors.Join(err, db.Close()))
	}
	// A generation run is a single sequential reader.
	db.SetMaxOpenConns(1)
	return NewDriver(dialectName, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, db)
}

// DSN returns the data source name used to open source read-only.
// SQLite paths are turned into URI filenames with mode=ro; network
// dialects are passed through and made read-only per session (see ReadOnly).
func DSN(dialectName, source string) string {
	if dialectName != dialect.SQLite {
		return source
	}
	p := sqlitePath(source)
	if !strings.HasPrefix(p, "file:") {
		p = "file:" + p
	}
	sep := "?"
	if strings.Contains(p, "?") {
		sep = "&"
	}
	return p + sep + url.Values{"mode": {"ro"}}.Encode()
}

// sqlitePath strips URI parameters from a sqlite source.
func sqlitePath(source string) string {
	if i := strings.IndexByte(source, '?'); i >= 0 && strings.HasPrefix(source, "file:") {
		return source[:i]
	}
	return source
}

// SQLiteFile returns the file system path of a sqlite source, without the
// file: scheme and URI parameters.
func SQLiteFile(source string) string {
	return strings.TrimPrefix(sqlitePath(source), "file:")
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Dialect implements the dialect.Driver method.
func (d *Driver) Dialect() string {
	// If the underlying driver is wrapped with a telemetry driver.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// ctyVarsKey is the key used for attaching and reading the context variables.
type ctxVarsKey struct{}

// sessionVars holds session variables to set before every statement.
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a new context that holds the session variable to be executed before every query.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars, struct {
		k, v string
	}{
		k: name,
		v: value,
	})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value from the context.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if s.k == name {
			return s.v, true
		}
	}
	return "", false
}

// ReadOnly returns a context that makes every query of a Postgres session
// run inside read-only transactions. SQLite is already opened with mode=ro
// and MySQL relies on the grants of the configured account.
func ReadOnly(ctx context.Context, dialectName string) context.Context {
	if dialectName == dialect.Postgres {
		return WithVar(ctx, "default_transaction_read_only", "on")
	}
	return ctx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.Driver's Query given an ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	if cf != nil {
		vr.ColumnScanner = rowsWithCloser{rows, cf}
	}
	return nil
}

// maySetVars sets the session variables before executing a query.
func (c Conn) maySetVars(ctx context.Context) (ExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c, nil, nil
	}
	var (
		ex    ExecQuerier  // Underlying ExecQuerier.
		cf    func() error // Close function.
		reset []string     // Reset variables.
		seen  = make(map[string]struct{}, len(sv.vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			_ = cf()
			return nil, nil, fmt.Errorf("invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			if c.dialect == dialect.Postgres {
				reset = append(reset, fmt.Sprintf("RESET %s", s.k))
			}
			seen[s.k] = struct{}{}
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", s.k, escapeStringValue(s.v))); err != nil {
			return nil, nil, errors.Join(err, cf())
		}
	}
	// Reset the variables before returning the connection to the pool, using
	// a fresh context so the cleanup runs even if ctx was canceled.
	if cls := cf; len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser wraps the ColumnScanner interface with a custom Close hook.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

// Close closes the underlying ColumnScanner and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}
