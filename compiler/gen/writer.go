package gen

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"
	"golang.org/x/sync/errgroup"
)

// ArtifactWriter writes rendered artifacts. Each file is replaced atomically
// through a temporary file and a rename, so readers never observe a partial
// artifact.
type ArtifactWriter struct {
	perm os.FileMode

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks write statistics.
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	TotalBytes     int64
	WriteTime      time.Duration
}

// NewArtifactWriter creates a writer producing files with mode 0644.
func NewArtifactWriter() *ArtifactWriter {
	return &ArtifactWriter{perm: 0o644, metrics: &WriterMetrics{}}
}

// Metrics returns the write metrics.
func (w *ArtifactWriter) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// WriteAll writes every artifact. Artifacts must be fully rendered before
// they are passed in. Files whose content did not change are left untouched.
func (w *ArtifactWriter) WriteAll(ctx context.Context, arts []*Artifact) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, a := range arts {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(a)
			}
		})
	}
	return eg.Wait()
}

func (w *ArtifactWriter) write(a *Artifact) error {
	start := time.Now()
	old, err := os.ReadFile(a.Path)
	switch {
	case err == nil && bytes.Equal(old, a.Content):
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return NewGenerationError(PhaseWrite, a.Path, "read existing artifact", err)
	}
	if err := WriteFile(a.Path, a.Content, w.perm); err != nil {
		return NewGenerationError(PhaseWrite, a.Path, "", err)
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(a.Content))
	w.metrics.WriteTime += time.Since(start)
	w.mu.Unlock()
	return nil
}

// WriteFile atomically replaces the file at path with data, creating missing
// parent directories.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return atomicwriter.WriteFile(path, data, perm)
}
