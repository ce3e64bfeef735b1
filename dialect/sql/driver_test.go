package sql

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/dialect"
)

func TestReadOnlyVars(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec(regexp.QuoteMeta("SET default_transaction_read_only = 'on'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET default_transaction_read_only").WillReturnResult(sqlmock.NewResult(0, 0))

	rows := &Rows{}
	err = drv.Query(ReadOnly(context.Background(), dialect.Postgres), "SELECT 1", []any{}, rows)
	require.NoError(t, err)
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOnlyNoopForSQLite(t *testing.T) {
	ctx := ReadOnly(context.Background(), dialect.SQLite)
	_, ok := VarFromContext(ctx, "default_transaction_read_only")
	assert.False(t, ok)

	ctx = ReadOnly(context.Background(), dialect.Postgres)
	v, ok := VarFromContext(ctx, "default_transaction_read_only")
	assert.True(t, ok)
	assert.Equal(t, "on", v)
}

func TestQueryInvalidArgs(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)

	err = drv.Query(context.Background(), "SELECT 1", []any{}, nil)
	assert.ErrorContains(t, err, "expect *sql.Rows")

	err = drv.Query(context.Background(), "SELECT 1", "x", &Rows{})
	assert.ErrorContains(t, err, "expect []any for args")
}

func TestQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("SELECT nope").WillReturnError(errors.New("no such column: nope"))
	err = drv.Query(context.Background(), "SELECT nope", []any{}, &Rows{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such column: nope")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidSessionVar(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)

	ctx := WithVar(context.Background(), "x; DROP TABLE users", "1")
	err = drv.Query(ctx, "SELECT 1", []any{}, &Rows{})
	assert.ErrorContains(t, err, "invalid session variable name")
}

func TestSQLiteFile(t *testing.T) {
	assert.Equal(t, "lookup.db", SQLiteFile("lookup.db"))
	assert.Equal(t, "/data/master.db", SQLiteFile("file:/data/master.db"))
	assert.Equal(t, "/data/master.db", SQLiteFile("file:/data/master.db?mode=ro&cache=shared"))
}

func TestDSN(t *testing.T) {
	tests := []struct {
		dialect, source, want string
	}{
		{dialect.SQLite, "EkxSqliteMaster.db", "file:EkxSqliteMaster.db?mode=ro"},
		{dialect.SQLite, "file:/data/master.db", "file:/data/master.db?mode=ro"},
		{dialect.SQLite, "file:/data/master.db?cache=shared", "file:/data/master.db?mode=ro"},
		{dialect.Postgres, "postgres://u@db/lookup", "postgres://u@db/lookup"},
		{dialect.MySQL, "u@tcp(db)/lookup", "u@tcp(db)/lookup"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.dialect, tt.source))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("missing sqlite file", func(t *testing.T) {
		_, err := Open(ctx, dialect.SQLite, filepath.Join(t.TempDir(), "absent.db"))
		require.Error(t, err)
		assert.True(t, ekxgen.IsConnectionError(err))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		_, err := Open(ctx, "oracle", "x")
		require.Error(t, err)
		assert.True(t, ekxgen.IsConnectionError(err))
	})

	t.Run("read only sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lookup.db")
		rw, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = rw.Exec("CREATE TABLE settings (key TEXT, value TEXT)")
		require.NoError(t, err)
		require.NoError(t, rw.Close())

		drv, err := Open(ctx, dialect.SQLite, path)
		require.NoError(t, err)
		defer drv.Close()
		assert.Equal(t, dialect.SQLite, drv.Dialect())

		_, err = drv.DB().Exec("INSERT INTO settings VALUES ('Version', '1')")
		assert.Error(t, err, "database must be opened read-only")

		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT count(*) FROM settings", []any{}, rows))
		defer rows.Close()
		require.True(t, rows.Next())
		var n int
		require.NoError(t, rows.Scan(&n))
		assert.Zero(t, n)
	})
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(time.Nanosecond),
		WithSlowQueryHook(func(_ context.Context, query string, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	mock.ExpectQuery("SELECT 1").WillDelayFor(time.Millisecond).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 2").WillReturnError(errors.New("boom"))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.Error(t, drv.Query(context.Background(), "SELECT 2", []any{}, &Rows{}))

	s := drv.Stats()
	assert.Equal(t, int64(2), s.TotalQueries)
	assert.Equal(t, int64(1), s.Errors)
	assert.GreaterOrEqual(t, s.SlowQueries, int64(1))
	assert.Contains(t, slow, "SELECT 1")
	assert.Contains(t, s.String(), "queries=2")
	require.NoError(t, mock.ExpectationsWereMet())
}
