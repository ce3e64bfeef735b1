// Package ekxgen turns the lookup tables of the EKX SQLite master database
// into generated C++ (and optionally Go) source artifacts.
//
// This package holds the error taxonomy shared by the reader, the generator
// and the command line tool.
package ekxgen

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

// Standard sentinel errors for the failure classes of a generation run.
var (
	// ErrConnection is returned when the lookup database cannot be opened.
	ErrConnection = errors.New("ekxgen: cannot open lookup database")

	// ErrQuery is returned when a read query is malformed or the expected
	// columns are absent.
	ErrQuery = errors.New("ekxgen: lookup query failed")

	// ErrIntegrity is returned when a row references data that does not exist,
	// e.g. a notification type pointing to an unknown notification class.
	ErrIntegrity = errors.New("ekxgen: referential integrity violated")
)

// ConnectionError reports that the lookup database could not be opened.
type ConnectionError struct {
	Dialect string // Dialect name (sqlite, mysql, postgres)
	Source  string // Database path or DSN
	Err     error  // Underlying error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ekxgen: open %s database %q: %v", e.Dialect, Redact(e.Dialect, e.Source), e.Err)
}

const redacted = "xxxxx"

var pqPassword = regexp.MustCompile(`(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// Redact returns source with the password of a mysql or postgres DSN
// masked. SQLite paths are returned unchanged.
func Redact(dialect, source string) string {
	switch dialect {
	case "mysql":
		cfg, err := mysql.ParseDSN(source)
		if err != nil {
			return redacted
		}
		if cfg.Passwd != "" {
			cfg.Passwd = redacted
		}
		return cfg.FormatDSN()
	case "postgres":
		if u, err := url.Parse(source); err == nil && u.Scheme != "" {
			return u.Redacted()
		}
		return pqPassword.ReplaceAllString(source, "${1}"+redacted)
	default:
		return source
	}
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrConnection.
func (e *ConnectionError) Is(err error) bool {
	return err == ErrConnection
}

// NewConnectionError returns a new ConnectionError.
func NewConnectionError(dialect, source string, err error) *ConnectionError {
	return &ConnectionError{Dialect: dialect, Source: source, Err: err}
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e) || errors.Is(err, ErrConnection)
}

// QueryError wraps a read query failure with the table it was issued against.
type QueryError struct {
	Table string // Lookup table being read
	Query string // Statement text (optional)
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("ekxgen: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrQuery.
func (e *QueryError) Is(err error) bool {
	return err == ErrQuery
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, query string, err error) *QueryError {
	return &QueryError{Table: table, Query: query, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e) || errors.Is(err, ErrQuery)
}

// IntegrityError reports a dangling reference between two lookup tables.
type IntegrityError struct {
	Table string // Referencing table
	Row   any    // Key of the offending row
	Ref   string // Referenced table
	Value any    // Referenced key that could not be resolved
}

// Error returns the error string.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ekxgen: %s row %v references missing %s %v", e.Table, e.Row, e.Ref, e.Value)
}

// Is reports whether the target error matches ErrIntegrity.
func (e *IntegrityError) Is(err error) bool {
	return err == ErrIntegrity
}

// NewIntegrityError returns a new IntegrityError.
func NewIntegrityError(table string, row any, ref string, value any) *IntegrityError {
	return &IntegrityError{Table: table, Row: row, Ref: ref, Value: value}
}

// IsIntegrityError returns true if the error is an IntegrityError.
func IsIntegrityError(err error) bool {
	if err == nil {
		return false
	}
	var e *IntegrityError
	return errors.As(err, &e) || errors.Is(err, ErrIntegrity)
}
