package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genres/internal/descriptor"
	"genres/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUnit(path, pkg, hash string, decls ...*descriptor.TypeDecl) *graph.Unit {
	return &graph.Unit{Path: path, Package: pkg, ContentHash: hash, Decls: decls}
}

func openStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dbPath
}

func TestSQLiteStore_SaveGraph_SnapshotSync(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	box := &descriptor.TypeDecl{
		ID:    "p.Box",
		Vars:  []descriptor.TypeVar{{Name: "T", Bounds: []descriptor.Type{descriptor.Named("Number")}}},
		Super: descriptor.Param("Base", descriptor.Var("T")),
		Fields: []descriptor.FieldDecl{
			{Name: "items", Type: descriptor.Param("List", descriptor.Var("T"))},
		},
		Source: descriptor.Source{File: "p/Box.java", Line: 3, EndLine: 9},
	}
	base := &descriptor.TypeDecl{ID: "p.Base", Vars: []descriptor.TypeVar{{Name: "E"}}}
	old := &descriptor.TypeDecl{ID: "p.Old"}

	// Initial snapshot: Box, Base and Old
	g1 := graph.NewGraph().WithCoreTypes()
	g1.AddUnit(testUnit("p/Box.java", "p", "h1", box))
	g1.AddUnit(testUnit("p/Base.java", "p", "h2", base))
	g1.AddUnit(testUnit("p/Old.java", "p", "h3", old))
	g1.LinkRelations()
	first, err := store.SaveGraph(ctx, g1)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Units)
	assert.Equal(t, 3, first.Types)

	// New snapshot: Old removed
	g2 := graph.NewGraph().WithCoreTypes()
	g2.AddUnit(testUnit("p/Box.java", "p", "h1", box))
	g2.AddUnit(testUnit("p/Base.java", "p", "h2b", base))
	g2.LinkRelations()
	second, err := store.SaveGraph(ctx, g2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	loaded, err := store.LoadGraph(ctx)
	require.NoError(t, err)

	t.Run("Declarations", func(t *testing.T) {
		_, hasOld := loaded.Lookup("p.Old")
		assert.False(t, hasOld)
		got, ok := loaded.Lookup("p.Box")
		require.True(t, ok)
		assert.Equal(t, "p.Base<T>", got.Super.String(), "loaded graphs are linked")
		assert.Equal(t, []descriptor.Type{descriptor.Named("Number")}, got.Vars[0].Bounds)
		assert.Equal(t, box.Source, got.Source)
		items, ok := got.Field("items")
		require.True(t, ok)
		assert.Equal(t, "List<T>", items.Type.String())
		assert.Empty(t, loaded.Unresolved)
	})

	t.Run("Edges", func(t *testing.T) {
		deps, err := store.Dependents(ctx, "p.Base")
		require.NoError(t, err)
		assert.Equal(t, []descriptor.TypeID{"p.Box"}, deps)

		deps, err = store.Dependents(ctx, "p.Old")
		require.NoError(t, err)
		assert.Empty(t, deps)
	})

	t.Run("File hashes", func(t *testing.T) {
		hashes, err := store.FileHashes(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"p/Box.java": "h1", "p/Base.java": "h2b"}, hashes)
	})

	t.Run("Last scan", func(t *testing.T) {
		last, err := store.LastScan(ctx)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, second.ID, last.ID)
		assert.Equal(t, 2, last.Units)
	})
}

func TestSQLiteStore_SaveGraph_EmptySnapshotClearsData(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	last, err := store.LastScan(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	g := graph.NewGraph()
	g.AddUnit(testUnit("X.java", "", "hx", &descriptor.TypeDecl{ID: "X"}))
	_, err = store.SaveGraph(ctx, g)
	require.NoError(t, err)

	_, err = store.SaveGraph(ctx, graph.NewGraph())
	require.NoError(t, err)

	loaded, err := store.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Units())
	_, ok := loaded.Lookup("X")
	assert.False(t, ok)
}

func TestSQLiteStore_SchemaVersion(t *testing.T) {
	store, dbPath := openStore(t)

	_, err := store.db.Exec(`UPDATE meta SET value = '1.0.3' WHERE key = 'schema_version'`)
	require.NoError(t, err)
	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err, "minor versions stay compatible")
	reopened.Close()

	_, err = store.db.Exec(`UPDATE meta SET value = '2.0.0' WHERE key = 'schema_version'`)
	require.NoError(t, err)
	_, err = NewSQLiteStore(dbPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatibleSchema))

	assert.Error(t, checkSchemaVersion("not-a-version"))
	assert.NoError(t, checkSchemaVersion(SchemaVersion))
}
