package index

import (
	"os"
	"path/filepath"
	"testing"

	"genres/internal/crawler"
	"genres/internal/descriptor"
	"genres/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexer(t *testing.T) *Indexer {
	t.Helper()
	ext, err := extractor.NewExtractor("java")
	require.NoError(t, err)
	return NewIndexer(crawler.NewCrawler(ext))
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexer_BuildGraph(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "p", "Base.java"), "package p;\npublic class Base<T> {}\n")
	write(t, filepath.Join(root, "p", "Box.java"), "package p;\nimport java.util.List;\npublic class Box extends Base<List<String>> {}\n")

	g, err := newIndexer(t).BuildGraph(root)
	require.NoError(t, err)

	box, ok := g.Lookup("p.Box")
	require.True(t, ok)
	assert.Equal(t, "p.Base<List<String>>", box.Super.String())
	assert.Equal(t, []descriptor.TypeID{"p.Box"}, g.Subtypes("p.Base"))
	assert.Empty(t, g.Unresolved)
}

func TestIndexer_Sync(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "Base.java")
	box := filepath.Join(root, "Box.java")
	write(t, base, "public class Base {}\n")
	write(t, box, "public class Box extends Base {}\n")

	idx := newIndexer(t)
	g, err := idx.BuildGraph(root)
	require.NoError(t, err)

	t.Run("Unchanged", func(t *testing.T) {
		result := idx.Sync(g, []string{base, filepath.Join(root, "notes.txt")})
		assert.False(t, result.Changed())
		assert.Equal(t, []string{base}, result.Unchanged)
	})

	t.Run("Updated", func(t *testing.T) {
		write(t, box, "public class Box extends Base {\n  public static class Lid {}\n}\n")
		result := idx.Sync(g, []string{box})
		assert.Equal(t, []string{box}, result.Updated)
		assert.Empty(t, result.RemovedTypes)
		_, ok := g.Lookup("Box.Lid")
		assert.True(t, ok)
	})

	t.Run("Removed", func(t *testing.T) {
		require.NoError(t, os.Remove(base))
		result := idx.Sync(g, []string{base})
		assert.Equal(t, []string{base}, result.Removed)
		assert.Equal(t, []descriptor.TypeID{"Base"}, result.RemovedTypes)
		require.Len(t, g.Unresolved, 1)
		assert.Equal(t, descriptor.TypeID("Box"), g.Unresolved[0].From)
	})

	t.Run("Failed", func(t *testing.T) {
		broken := filepath.Join(root, "broken.types.yaml")
		write(t, broken, "package: [")
		result := idx.Sync(g, []string{broken})
		assert.False(t, result.Changed())
		assert.Contains(t, result.Failed, broken)
	})
}
