package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ekxhmi/ekxgen/compiler/gen"
)

// setting binds a config key to its command line flag.
type setting struct {
	key   string // key in the config file, also EKXGEN_<KEY> in the environment
	flag  string
	usage string
	def   func(*gen.Config) string
}

var settings = []setting{
	{"database", "database", "lookup database path, or DSN for mysql and postgres", func(c *gen.Config) string { return c.Database }},
	{"dialect", "dialect", "database dialect: sqlite, mysql or postgres", func(c *gen.Config) string { return c.Dialect }},
	{"declaration", "declaration", "declaration header output", func(c *gen.Config) string { return c.DeclarationPath }},
	{"definition", "definition", "definition source output", func(c *gen.Config) string { return c.DefinitionPath }},
	{"namespace", "namespace", "namespace of the generated code", func(c *gen.Config) string { return c.Namespace }},
	{"guard", "guard", "include guard macro (default <namespace>_h)", func(c *gen.Config) string { return c.Guard }},
	{"identifiers", "identifiers", "identifier policy: legacy or strict", func(c *gen.Config) string { return string(c.Identifiers) }},
	{"go_output", "go-output", "also write a Go package to this file", func(c *gen.Config) string { return c.GoPath }},
	{"go_package", "go-package", "package name of the Go output", func(c *gen.Config) string { return c.GoPackage }},
}

// addConfigFlags registers the -config flag and one flag per setting.
func addConfigFlags(fs *pflag.FlagSet) {
	def := gen.DefaultConfig()
	fs.StringP("config", "c", "", "YAML config file")
	for _, s := range settings {
		fs.String(s.flag, s.def(def), s.usage)
	}
}

// newViper layers the settings: flags set on the command line win over
// EKXGEN_* variables, which win over the config file and the defaults.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("EKXGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, s := range settings {
		if f := fs.Lookup(s.flag); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, err
			}
		}
	}
	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", f.Value.String(), err)
		}
	}
	return v, nil
}

// loadConfig resolves the generation config from fs and validates it.
func loadConfig(fs *pflag.FlagSet, log zerolog.Logger) (*gen.Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("path", used).Msg("config file loaded")
	}
	opts := []gen.Option{
		gen.WithDatabase(v.GetString("database")),
		gen.WithDialect(v.GetString("dialect")),
		gen.WithDeclarationOutput(v.GetString("declaration")),
		gen.WithDefinitionOutput(v.GetString("definition")),
		gen.WithNamespace(v.GetString("namespace")),
		gen.WithIdentifierPolicy(gen.IdentifierPolicy(v.GetString("identifiers"))),
		gen.WithLogger(log),
	}
	if guard := v.GetString("guard"); guard != "" {
		opts = append(opts, gen.WithGuard(guard))
	}
	if out := v.GetString("go_output"); out != "" {
		opts = append(opts, gen.WithGoOutput(out, v.GetString("go_package")))
	}
	return gen.NewConfig(opts...)
}
