package gen

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/ekxhmi/ekxgen/dialect"
)

// Option configures code generation.
type Option func(*Config) error

// WithDatabase sets the lookup database path (or DSN).
func WithDatabase(source string) Option {
	return func(c *Config) error {
		if source == "" {
			return NewConfigError("Database", nil, "database cannot be empty")
		}
		c.Database = source
		return nil
	}
}

// WithDialect sets the database dialect.
// Supported dialects: "sqlite", "mysql", "postgres".
func WithDialect(name string) Option {
	return func(c *Config) error {
		if !dialect.Valid(name) {
			return NewConfigError("Dialect", name, "unsupported dialect; use sqlite, mysql or postgres")
		}
		c.Dialect = name
		return nil
	}
}

// WithDeclarationOutput sets the path of the declaration header.
func WithDeclarationOutput(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("DeclarationPath", nil, "declaration output cannot be empty")
		}
		c.DeclarationPath = path
		return nil
	}
}

// WithDefinitionOutput sets the path of the definition source.
func WithDefinitionOutput(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("DefinitionPath", nil, "definition output cannot be empty")
		}
		c.DefinitionPath = path
		return nil
	}
}

// WithNamespace sets the C++ namespace and, unless a guard was set
// explicitly, the include guard derived from it.
func WithNamespace(ns string) Option {
	return func(c *Config) error {
		if !cIdent.MatchString(ns) {
			return NewConfigError("Namespace", ns, "namespace must be a C++ identifier")
		}
		c.Namespace = ns
		return nil
	}
}

// WithGuard sets the include guard macro of the declaration header.
func WithGuard(guard string) Option {
	return func(c *Config) error {
		if !cIdent.MatchString(guard) {
			return NewConfigError("Guard", guard, "include guard must be a C++ identifier")
		}
		c.Guard = guard
		return nil
	}
}

// WithIdentifierPolicy sets the identifier sanitizer policy.
func WithIdentifierPolicy(p IdentifierPolicy) Option {
	return func(c *Config) error {
		if !p.Valid() {
			return NewConfigError("Identifiers", p, "unknown identifier policy; use legacy or strict")
		}
		c.Identifiers = p
		return nil
	}
}

// WithGoOutput enables the Go target written to path with the given package
// clause.
func WithGoOutput(path, pkg string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("GoPath", nil, "go output cannot be empty")
		}
		if !validPackageName(pkg) {
			return NewConfigError("GoPackage", pkg, "invalid package name")
		}
		c.GoPath, c.GoPackage = path, pkg
		return nil
	}
}

// WithLogger sets the logger used during generation.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a Config from the defaults and the given options and
// validates the result.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
