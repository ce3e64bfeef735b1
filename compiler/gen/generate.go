package gen

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ekxhmi/ekxgen/compiler/load"
	"github.com/ekxhmi/ekxgen/dialect"
	"github.com/ekxhmi/ekxgen/dialect/sql"
)

// Generator runs the pipeline: open the lookup database, read every table,
// build and render all artifacts in memory, then write them.
type Generator struct {
	cfg  *Config
	log  zerolog.Logger
	open func(ctx context.Context, name, source string) (dialect.Driver, error)
}

// Result summarizes one generation run.
type Result struct {
	Artifacts []*Artifact
	Queries   sql.StatsSnapshot
	Writes    WriterMetrics
	Duration  time.Duration
}

// NewGenerator creates a generator for a validated configuration.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		cfg:  cfg,
		log:  cfg.Logger,
		open: openDriver,
	}
}

// WithDriver makes the generator read from drv instead of opening
// cfg.Database. The driver stays owned by the caller.
func (g *Generator) WithDriver(drv dialect.Driver) *Generator {
	g.open = func(context.Context, string, string) (dialect.Driver, error) {
		return nopCloser{drv}, nil
	}
	return g
}

func openDriver(ctx context.Context, name, source string) (dialect.Driver, error) {
	drv, err := sql.Open(ctx, name, source)
	if err != nil {
		return nil, err
	}
	return drv, nil
}

type nopCloser struct{ dialect.Driver }

func (nopCloser) Close() error { return nil }

// Generate runs the pipeline once. The database is opened before anything
// else happens and no artifact is touched unless every table was read and
// every artifact rendered.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	drv, err := g.open(ctx, g.cfg.Dialect, g.cfg.Database)
	if err != nil {
		return nil, err
	}
	defer drv.Close()
	g.log.Debug().Str("dialect", g.cfg.Dialect).Str("database", g.cfg.Source()).Msg("lookup database opened")

	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryHook(func(_ context.Context, query string, d time.Duration) {
		g.log.Warn().Str("query", query).Dur("duration", d).Msg("slow lookup query")
	}))
	snap, err := load.Load(ctx, load.NewReader(stats))
	if err != nil {
		return nil, err
	}
	g.logSnapshot(snap)

	arts, err := g.Render(snap)
	if err != nil {
		return nil, err
	}
	w := NewArtifactWriter()
	if err := w.WriteAll(ctx, arts); err != nil {
		return nil, err
	}
	res := &Result{
		Artifacts: arts,
		Queries:   stats.Stats(),
		Writes:    w.Metrics(),
		Duration:  time.Since(start),
	}
	for _, a := range arts {
		g.log.Info().Str("kind", a.Kind).Str("path", a.Path).Int("bytes", len(a.Content)).Msg("artifact generated")
	}
	g.log.Debug().Stringer("queries", res.Queries).Dur("duration", res.Duration).Msg("generation finished")
	return res, nil
}

// Render builds the model of a snapshot and renders every artifact without
// writing anything.
func (g *Generator) Render(snap *load.Snapshot) ([]*Artifact, error) {
	m, err := BuildModel(snap, g.cfg, g.log)
	if err != nil {
		return nil, err
	}
	return Render(m, g.cfg)
}

func (g *Generator) logSnapshot(s *load.Snapshot) {
	g.log.Debug().
		Str("version", s.Version).
		Int(load.TableEventTypes, len(s.EventTypes)).
		Int(load.TableNotificationTypes, len(s.NotificationTypes)).
		Int(load.TableNotificationClasses, len(s.NotificationClasses)).
		Int(load.TableRecipeModes, len(s.RecipeModes)).
		Int(load.TableCounters, len(s.Counters)).
		Int(load.TableRecipes, len(s.Recipes)).
		Msg("lookup tables read")
}

// Generate is a convenience wrapper building a Config from opts and running
// one generation.
func Generate(ctx context.Context, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return NewGenerator(cfg).Generate(ctx)
}
