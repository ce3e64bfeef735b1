package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekxhmi/ekxgen/dialect"
)

func TestReadConfig(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ekxgen.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
database: /data/EkxSqliteMaster.db
declaration: include/EkxSqliteTypes.h
identifiers: strict
go_output: lookup/lookup.go
go_package: lookup
`), 0o644))

		c, err := ReadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/EkxSqliteMaster.db", c.Database)
		assert.Equal(t, "include/EkxSqliteTypes.h", c.DeclarationPath)
		assert.Equal(t, DefaultDefinition, c.DefinitionPath, "absent keys keep defaults")
		assert.Equal(t, dialect.SQLite, c.Dialect)
		assert.Equal(t, PolicyStrict, c.Identifiers)
		assert.Equal(t, "lookup/lookup.go", c.GoPath)
		assert.Equal(t, "lookup", c.GoPackage)
		require.NoError(t, c.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0o644))
		_, err := ReadConfig(path)
		assert.ErrorContains(t, err, "parse config")
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		option string
	}{
		{"empty database", func(c *Config) { c.Database = "" }, "Database"},
		{"bad dialect", func(c *Config) { c.Dialect = "mssql" }, "Dialect"},
		{"empty declaration", func(c *Config) { c.DeclarationPath = "" }, "DeclarationPath"},
		{"empty definition", func(c *Config) { c.DefinitionPath = "" }, "DefinitionPath"},
		{"bad namespace", func(c *Config) { c.Namespace = "a b" }, "Namespace"},
		{"bad guard", func(c *Config) { c.Guard = "x-y" }, "Guard"},
		{"bad policy", func(c *Config) { c.Identifiers = "fancy" }, "Identifiers"},
		{"go target without package", func(c *Config) { c.GoPath = "x.go" }, "GoPackage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.option, ce.Option)
		})
	}
}

func TestConfigSource(t *testing.T) {
	c := DefaultConfig()
	c.Database = "/opt/ekx/db/EkxSqliteMaster.db"
	assert.Equal(t, "EkxSqliteMaster.db", c.Source())

	c.Database = "file:/opt/ekx/master.db"
	assert.Equal(t, "master.db", c.Source())

	c.Dialect, c.Database = dialect.Postgres, "postgres://admin:secret@db/lookup"
	assert.NotContains(t, c.Source(), "secret")
}
