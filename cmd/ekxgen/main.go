// ekxgen generates the C++ lookup types of an EKX grinder from its lookup
// database.
//
//	ekxgen [generate] [flags]   write the declaration and definition files
//	ekxgen watch [flags]        regenerate whenever the database changes
//	ekxgen export [flags]       write the notification report (csv or xlsx)
//	ekxgen init-db <path>       create a lookup database with reference rows
//	ekxgen config [flags]       print the effective configuration
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/lib/pq"              // postgres driver
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/ekxhmi/ekxgen/compiler/export"
	"github.com/ekxhmi/ekxgen/compiler/gen"
	"github.com/ekxhmi/ekxgen/dialect/sql"
	"github.com/ekxhmi/ekxgen/internal/fixture"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			os.Exit(1)
		}
	}
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, fs *pflag.FlagSet, log zerolog.Logger, stdout io.Writer) error
	flags func(fs *pflag.FlagSet)
}

var commands = []command{
	{"generate", "write the declaration and definition files", runGenerate, addConfigFlags},
	{"watch", "regenerate whenever the database changes", runWatch, func(fs *pflag.FlagSet) {
		addConfigFlags(fs)
		fs.Duration("debounce", gen.DefaultDebounce, "quiet period after the last change")
	}},
	{"export", "write the notification report", runExport, func(fs *pflag.FlagSet) {
		addConfigFlags(fs)
		fs.StringP("output", "o", export.DefaultPath, "report file")
		fs.StringP("format", "f", "", "csv or xlsx (default from the output extension)")
	}},
	{"init-db", "create a lookup database with reference rows", runInitDB, func(fs *pflag.FlagSet) {
		fs.Bool("schema-only", false, "create the tables without reference rows")
	}},
	{"config", "print the effective configuration", runConfig, addConfigFlags},
}

// run executes the command named by the first argument. Without a command
// name, generate runs.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := commands[0]
	if len(args) > 0 {
		for _, c := range commands {
			if args[0] == c.name {
				cmd, args = c, args[1:]
				break
			}
		}
	}
	fs := pflag.NewFlagSet("ekxgen "+cmd.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: ekxgen %s [flags]\n\n%s\n\nflags:\n", cmd.name, cmd.usage)
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "\ncommands:")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-9s %s\n", c.name, c.usage)
		}
	}
	cmd.flags(fs)
	level := fs.StringP("log-level", "l", "info", "log level: debug, info, warn or error")
	jsonLog := fs.Bool("log-json", false, "log JSON lines instead of console text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.name != "init-db" && fs.NArg() > 0 {
		err := fmt.Errorf("unknown command or argument %q", fs.Arg(0))
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return err
	}

	log, err := newLogger(stderr, *level, *jsonLog)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}
	if err := cmd.run(ctx, fs, log, stdout); err != nil {
		log.Error().Err(err).Str("command", cmd.name).Msg("ekxgen failed")
		return err
	}
	return nil
}

func newLogger(w io.Writer, level string, json bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func runGenerate(ctx context.Context, fs *pflag.FlagSet, log zerolog.Logger, _ io.Writer) error {
	cfg, err := loadConfig(fs, log)
	if err != nil {
		return err
	}
	res, err := gen.NewGenerator(cfg).Generate(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("written", res.Writes.FilesWritten).
		Int("unchanged", res.Writes.FilesUnchanged).
		Dur("took", res.Duration).
		Msg("generation complete")
	return nil
}

func runWatch(ctx context.Context, fs *pflag.FlagSet, log zerolog.Logger, _ io.Writer) error {
	cfg, err := loadConfig(fs, log)
	if err != nil {
		return err
	}
	debounce, err := fs.GetDuration("debounce")
	if err != nil {
		return err
	}
	log.Info().Str("database", cfg.Source()).Dur("debounce", debounce).Msg("watching")
	return gen.NewGenerator(cfg).Watch(ctx, debounce)
}

func runExport(ctx context.Context, fs *pflag.FlagSet, log zerolog.Logger, _ io.Writer) (rerr error) {
	cfg, err := loadConfig(fs, log)
	if err != nil {
		return err
	}
	out, _ := fs.GetString("output")
	name, _ := fs.GetString("format")
	format := export.FormatOf(out)
	if name != "" {
		if format, err = export.ParseFormat(name); err != nil {
			return err
		}
	}
	drv, err := sql.Open(ctx, cfg.Dialect, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, drv.Close()) }()
	_, err = export.NewExporter(drv, log).Export(ctx, out, format)
	return err
}

func runInitDB(ctx context.Context, fs *pflag.FlagSet, log zerolog.Logger, _ io.Writer) error {
	if fs.NArg() != 1 {
		return errors.New("init-db: expected exactly one database path")
	}
	path := fs.Arg(0)
	version := fixture.VersionReference
	if schemaOnly, _ := fs.GetBool("schema-only"); schemaOnly {
		version = fixture.VersionSchema
	}
	if err := fixture.Create(ctx, path, version); err != nil {
		return err
	}
	log.Info().Str("path", path).Int64("version", version).Msg("lookup database created")
	return nil
}

func runConfig(_ context.Context, fs *pflag.FlagSet, log zerolog.Logger, stdout io.Writer) error {
	cfg, err := loadConfig(fs, log)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
