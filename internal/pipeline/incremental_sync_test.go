package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"genres/internal/crawler"
	"genres/internal/descriptor"
	"genres/internal/extractor"
	"genres/internal/git"
	"genres/internal/hierarchy"
	"genres/internal/index"
	"genres/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSync(t *testing.T, root string) (*IncrementalSync, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "genres.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ext, err := extractor.NewExtractor("java")
	require.NoError(t, err)

	s := NewIncrementalSync(store, index.NewIndexer(crawler.NewCrawler(ext)))
	s.ProjectRoot = root
	s.Out = io.Discard
	return s, store
}

func TestIncrementalSync_Apply(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "Base.java")
	require.NoError(t, os.WriteFile(base, []byte("public class Base<T> {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Box.java"), []byte("public class Box extends Base<String> {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Other.java"), []byte("public class Other {}\n"), 0o644))

	s, store := newSync(t, root)
	ctx := context.Background()

	t.Run("First run rebuilds", func(t *testing.T) {
		report, err := s.Apply(ctx, nil, false)
		require.NoError(t, err)
		assert.True(t, report.FullResync)
		require.NotNil(t, report.Scan)
		assert.Equal(t, 3, report.Scan.Units)
		assert.Nil(t, report.Impact)
	})

	t.Run("No changes", func(t *testing.T) {
		before, err := store.LastScan(ctx)
		require.NoError(t, err)

		report, err := s.Apply(ctx, nil, false)
		require.NoError(t, err)
		assert.Nil(t, report.Scan)

		after, err := store.LastScan(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
	})

	t.Run("Changed supertype breaks subtypes", func(t *testing.T) {
		require.NoError(t, os.WriteFile(base, []byte("public class Base<K, V> {}\n"), 0o644))

		report, err := s.Apply(ctx, []git.ChangedFile{{Path: "Base.java", ChangedLines: []int{1}}}, false)
		require.NoError(t, err)
		assert.False(t, report.FullResync)
		assert.Equal(t, []string{base}, report.Sync.Updated)
		require.NotNil(t, report.Impact)
		assert.Equal(t, []descriptor.TypeID{"Base"}, report.Impact.DirectlyAffected)
		assert.Equal(t, []descriptor.TypeID{"Box"}, report.Impact.IndirectlyAffected)

		require.Contains(t, report.Broken, descriptor.TypeID("Box"))
		var malformed *hierarchy.MalformedDeclarationError
		assert.ErrorAs(t, report.Broken["Box"], &malformed)
		assert.NotContains(t, report.Broken, descriptor.TypeID("Base"))

		loaded, err := store.LoadGraph(ctx)
		require.NoError(t, err)
		decl, ok := loaded.Lookup("Base")
		require.True(t, ok)
		assert.Equal(t, 2, decl.Arity())
	})

	t.Run("Unparsed change", func(t *testing.T) {
		report, err := s.Apply(ctx, []git.ChangedFile{{Path: "README.md", ChangedLines: []int{1}}}, false)
		require.NoError(t, err)
		assert.False(t, report.Sync.Changed())
		assert.Nil(t, report.Scan)
	})
}
