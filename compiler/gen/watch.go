package gen

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/ekxhmi/ekxgen/dialect"
	"github.com/ekxhmi/ekxgen/dialect/sql"
)

// DefaultDebounce is the quiet period after the last database change before a
// watch regenerates.
const DefaultDebounce = 500 * time.Millisecond

// Watch generates once and then regenerates every time the SQLite database
// file changes, until ctx is done. A failing run is logged and the watch
// continues; only watcher failures end it. The containing directory is
// watched so that a database replaced by rename is picked up too.
func (g *Generator) Watch(ctx context.Context, debounce time.Duration) error {
	if g.cfg.Dialect != dialect.SQLite {
		return NewConfigError("Dialect", g.cfg.Dialect, "watch requires the sqlite dialect")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	db, err := filepath.Abs(sql.SQLiteFile(g.cfg.Database))
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(db)); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	changed <- struct{}{}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if !affects(ev, db) {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return err
			}
		}
	})
	eg.Go(func() error {
		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				timer.Reset(debounce)
			case <-timer.C:
				g.log.Info().Str("database", g.cfg.Source()).Msg("regenerating")
				if _, err := g.Generate(ctx); err != nil {
					g.log.Error().Err(err).Msg("generation failed")
				}
			}
		}
	})
	return eg.Wait()
}

// affects reports whether ev touches the database file or its journal.
func affects(ev fsnotify.Event, db string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == db || name == db+"-wal" || name == db+"-journal"
}
