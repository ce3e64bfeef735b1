package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ekxhmi/ekxgen/dialect"
)

// Defaults of the legacy generator.
const (
	DefaultDatabase    = "EkxSqliteMaster.db"
	DefaultDeclaration = "EkxSqliteTypes.h"
	DefaultDefinition  = "EkxSqliteTypes.cpp"
	DefaultNamespace   = "EkxSqliteTypes"
)

// Config holds the configuration of a generation run.
type Config struct {
	// Database is the path of the SQLite lookup database, or the DSN for the
	// mysql and postgres dialects.
	Database string `yaml:"database"`
	// Dialect is the database dialect. Defaults to sqlite.
	Dialect string `yaml:"dialect"`

	// DeclarationPath is where the declaration header is written.
	DeclarationPath string `yaml:"declaration"`
	// DefinitionPath is where the definition source is written.
	DefinitionPath string `yaml:"definition"`
	// Namespace wraps every generated declaration and definition.
	Namespace string `yaml:"namespace"`
	// Guard is the include guard macro. Defaults to Namespace + "_h".
	Guard string `yaml:"guard"`

	// Identifiers selects the identifier sanitizer policy.
	Identifiers IdentifierPolicy `yaml:"identifiers"`

	// GoPath, when set, enables the Go target and is the output file.
	GoPath string `yaml:"go_output"`
	// GoPackage is the package clause of the Go target.
	GoPackage string `yaml:"go_package"`

	// Logger receives progress and warnings. Defaults to a no-op logger.
	Logger zerolog.Logger `yaml:"-"`
}

// DefaultConfig returns a Config with the defaults of the legacy tool.
func DefaultConfig() *Config {
	return &Config{
		Database:        DefaultDatabase,
		Dialect:         dialect.SQLite,
		DeclarationPath: DefaultDeclaration,
		DefinitionPath:  DefaultDefinition,
		Namespace:       DefaultNamespace,
		Identifiers:     PolicyLegacy,
		Logger:          zerolog.Nop(),
	}
}

var cIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate reports the first invalid or missing option.
func (c *Config) Validate() error {
	switch {
	case c.Database == "":
		return NewConfigError("Database", nil, "database cannot be empty")
	case !dialect.Valid(c.Dialect):
		return NewConfigError("Dialect", c.Dialect, "unsupported dialect; use sqlite, mysql or postgres")
	case c.DeclarationPath == "":
		return NewConfigError("DeclarationPath", nil, "declaration output cannot be empty")
	case c.DefinitionPath == "":
		return NewConfigError("DefinitionPath", nil, "definition output cannot be empty")
	case filepath.Clean(c.DeclarationPath) == filepath.Clean(c.DefinitionPath):
		return NewConfigError("DefinitionPath", c.DefinitionPath, "declaration and definition must be different files")
	case !cIdent.MatchString(c.Namespace):
		return NewConfigError("Namespace", c.Namespace, "namespace must be a C++ identifier")
	case c.Guard != "" && !cIdent.MatchString(c.Guard):
		return NewConfigError("Guard", c.Guard, "include guard must be a C++ identifier")
	case !c.Identifiers.Valid():
		return NewConfigError("Identifiers", c.Identifiers, "unknown identifier policy; use legacy or strict")
	case c.GoPath != "" && !validPackageName(c.GoPackage):
		return NewConfigError("GoPackage", c.GoPackage, "go target requires a valid package name")
	}
	return nil
}

// IncludeGuard returns the include guard macro of the declaration.
func (c *Config) IncludeGuard() string {
	if c.Guard != "" {
		return c.Guard
	}
	return c.Namespace + "_h"
}

// Source returns the database name printed in the banner of every artifact.
// DSNs of server dialects are never printed since they may carry credentials.
func (c *Config) Source() string {
	if c.Dialect == dialect.SQLite {
		path, _, _ := strings.Cut(strings.TrimPrefix(c.Database, "file:"), "?")
		return filepath.Base(path)
	}
	return c.Dialect + " lookup database"
}

// ReadConfig reads a YAML config file. Keys absent from the file keep their
// defaults.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func validPackageName(s string) bool {
	return cIdent.MatchString(s) && strings.ToLower(s) == s
}
