package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactWriter(t *testing.T) {
	dir := t.TempDir()
	arts := []*Artifact{
		{Kind: KindDeclaration, Path: filepath.Join(dir, "inc", "a.h"), Content: []byte("header\n")},
		{Kind: KindDefinition, Path: filepath.Join(dir, "src", "a.cpp"), Content: []byte("source\n")},
	}

	t.Run("creates directories and files", func(t *testing.T) {
		w := NewArtifactWriter()
		require.NoError(t, w.WriteAll(context.Background(), arts))
		assert.Equal(t, "header\n", read(t, arts[0].Path))
		assert.Equal(t, "source\n", read(t, arts[1].Path))
		m := w.Metrics()
		assert.Equal(t, 2, m.FilesWritten)
		assert.Equal(t, int64(14), m.TotalBytes)

		info, err := os.Stat(arts[0].Path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("skips unchanged files", func(t *testing.T) {
		w := NewArtifactWriter()
		require.NoError(t, w.WriteAll(context.Background(), arts))
		assert.Equal(t, 2, w.Metrics().FilesUnchanged)
		assert.Zero(t, w.Metrics().FilesWritten)
	})

	t.Run("replaces changed files", func(t *testing.T) {
		w := NewArtifactWriter()
		changed := []*Artifact{{Path: arts[0].Path, Content: []byte("header v2\n")}}
		require.NoError(t, w.WriteAll(context.Background(), changed))
		assert.Equal(t, "header v2\n", read(t, arts[0].Path))
		entries, err := os.ReadDir(filepath.Dir(arts[0].Path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temporary files are left behind")
	})

	t.Run("unwritable target", func(t *testing.T) {
		w := NewArtifactWriter()
		err := w.WriteAll(context.Background(), []*Artifact{{Path: dir, Content: []byte("x")}})
		require.Error(t, err)
		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, PhaseWrite, ge.Phase)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewArtifactWriter().WriteAll(ctx, []*Artifact{{Path: filepath.Join(dir, "late.h"), Content: []byte("x")}})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, filepath.Join(dir, "late.h"))
	})
}
