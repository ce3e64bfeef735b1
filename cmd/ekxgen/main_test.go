package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/compiler/gen"
)

func initDB(t *testing.T) (dir, db string) {
	t.Helper()
	dir = t.TempDir()
	db = filepath.Join(dir, "lookup.db")
	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"init-db", db}, new(bytes.Buffer), &stderr), stderr.String())
	return dir, db
}

func TestRunGenerate(t *testing.T) {
	dir, db := initDB(t)
	decl := filepath.Join(dir, "out", "types.h")
	def := filepath.Join(dir, "out", "types.cpp")

	var stderr bytes.Buffer
	err := run(context.Background(), []string{"--database", db, "--declaration", decl, "--definition", def}, new(bytes.Buffer), &stderr)
	require.NoError(t, err, stderr.String())
	assert.FileExists(t, decl)
	assert.FileExists(t, def)
	assert.Contains(t, stderr.String(), "generation complete")

	data, err := os.ReadFile(def)
	require.NoError(t, err)
	assert.Contains(t, string(data), `#include "types.h"`)
}

func TestRunConfigLayers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ekxgen.yaml")
	require.NoError(t, os.WriteFile(file, []byte("database: from-file.db\nnamespace: FileTypes\nidentifiers: strict\n"), 0o644))
	t.Setenv("EKXGEN_NAMESPACE", "EnvTypes")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"config", "-c", file, "--database", "flag.db"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var cfg gen.Config
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &cfg))
	assert.Equal(t, "flag.db", cfg.Database, "flags win")
	assert.Equal(t, "EnvTypes", cfg.Namespace, "environment wins over the file")
	assert.Equal(t, gen.PolicyStrict, cfg.Identifiers, "file wins over defaults")
	assert.Equal(t, gen.DefaultDeclaration, cfg.DeclarationPath)
}

func TestRunExport(t *testing.T) {
	dir, db := initDB(t)
	out := filepath.Join(dir, "report.xlsx")

	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"export", "--database", db, "-o", out}, new(bytes.Buffer), &stderr), stderr.String())
	assert.FileExists(t, out)

	csv := filepath.Join(dir, "report.txt")
	require.NoError(t, run(context.Background(), []string{"export", "--database", db, "-o", csv, "-f", "csv"}, new(bytes.Buffer), &stderr), stderr.String())
	data, err := os.ReadFile(csv)
	require.NoError(t, err)
	assert.Contains(t, string(data), "notification_type_id;notification_name;")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		args  []string
		check func(*testing.T, error)
	}{
		{
			name: "missing database",
			args: []string{"generate", "--database", filepath.Join(dir, "absent.db"), "--declaration", filepath.Join(dir, "a.h")},
			check: func(t *testing.T, err error) {
				assert.True(t, ekxgen.IsConnectionError(err))
				assert.NoFileExists(t, filepath.Join(dir, "a.h"))
			},
		},
		{
			name:  "bad dialect",
			args:  []string{"--dialect", "oracle"},
			check: func(t *testing.T, err error) { assert.True(t, gen.IsConfigError(err)) },
		},
		{
			name:  "bad format",
			args:  []string{"export", "-f", "ods"},
			check: func(t *testing.T, err error) { assert.True(t, gen.IsConfigError(err)) },
		},
		{
			name:  "init-db without path",
			args:  []string{"init-db"},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "exactly one database path") },
		},
		{
			name: "mistyped command",
			args: []string{"exprot", "--declaration", filepath.Join(dir, "typo.h")},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, `"exprot"`)
				assert.NoFileExists(t, filepath.Join(dir, "typo.h"))
			},
		},
		{
			name:  "unknown flag",
			args:  []string{"--nope"},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "nope") },
		},
		{
			name:  "help",
			args:  []string{"watch", "-h"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, pflag.ErrHelp) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, new(bytes.Buffer), new(bytes.Buffer))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", true)
	require.NoError(t, err)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	_, err = newLogger(&buf, "loud", false)
	assert.Error(t, err)
}
