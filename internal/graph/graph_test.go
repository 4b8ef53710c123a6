package graph

import (
	"testing"

	"genres/internal/descriptor"
	"genres/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(name string, t descriptor.Type) descriptor.FieldDecl {
	return descriptor.FieldDecl{Name: name, Type: t}
}

func sampleGraph() *Graph {
	g := NewGraph().WithCoreTypes()

	g.AddUnit(&Unit{
		Path:    "a/Box.java",
		Package: "com.a",
		Imports: []string{"com.b.Helper", "com.c.*"},
		Decls: []*descriptor.TypeDecl{
			{
				ID:         "com.a.Box",
				Vars:       vars("T"),
				Super:      named("Base"),
				Interfaces: []descriptor.Type{param("Comparable", param("Box", tvar("T")))},
				Fields: []descriptor.FieldDecl{
					field("helper", named("Helper")),
					field("util", named("Util")),
					field("node", named("Node")),
					field("ghost", named("Ghost")),
					field("dup", named("Dup")),
					field("count", named("int")),
					field("items", param("java.util.List", tvar("T"))),
				},
				Methods: []descriptor.MethodDecl{
					{Name: "get", Return: tvar("T")},
				},
			},
			{ID: "com.a.Box.Node", Outer: "com.a.Box"},
		},
	})
	g.AddUnit(&Unit{Path: "a/Base.java", Package: "com.a", Decls: []*descriptor.TypeDecl{{ID: "com.a.Base"}}})
	g.AddUnit(&Unit{Path: "b/Helper.java", Package: "com.b", Decls: []*descriptor.TypeDecl{{ID: "com.b.Helper"}}})
	g.AddUnit(&Unit{Path: "c/Util.java", Package: "com.c", Decls: []*descriptor.TypeDecl{{ID: "com.c.Util"}}})
	g.AddUnit(&Unit{Path: "x/Dup.java", Package: "x", Decls: []*descriptor.TypeDecl{{ID: "x.Dup"}}})
	g.AddUnit(&Unit{Path: "y/Dup.java", Package: "y", Decls: []*descriptor.TypeDecl{{ID: "y.Dup"}}})
	return g
}

func fieldType(t *testing.T, g *Graph, id descriptor.TypeID, name string) descriptor.Type {
	t.Helper()
	d, ok := g.Lookup(id)
	require.True(t, ok, id)
	f, ok := d.Field(name)
	require.True(t, ok, name)
	return f.Type
}

func TestGraph_LinkRelations(t *testing.T) {
	g := sampleGraph()
	g.LinkRelations()

	t.Run("Package resolution", func(t *testing.T) {
		box, ok := g.Lookup("com.a.Box")
		require.True(t, ok)
		assert.Equal(t, named("com.a.Base"), box.Super)
		assert.Equal(t, param("Comparable", param("com.a.Box", tvar("T"))), box.Interfaces[0])
	})

	t.Run("Import resolution", func(t *testing.T) {
		assert.Equal(t, named("com.b.Helper"), fieldType(t, g, "com.a.Box", "helper"))
		assert.Equal(t, named("com.c.Util"), fieldType(t, g, "com.a.Box", "util"), "on-demand import")
	})

	t.Run("Nested resolution", func(t *testing.T) {
		assert.Equal(t, named("com.a.Box.Node"), fieldType(t, g, "com.a.Box", "node"))
	})

	t.Run("Qualified and core names", func(t *testing.T) {
		assert.Equal(t, param("List", tvar("T")), fieldType(t, g, "com.a.Box", "items"))
		assert.Equal(t, named("int"), fieldType(t, g, "com.a.Box", "count"))
	})

	t.Run("Members know their owner", func(t *testing.T) {
		box, _ := g.Lookup("com.a.Box")
		get, ok := box.Method("get")
		require.True(t, ok)
		assert.Equal(t, descriptor.TypeID("com.a.Box"), get.Owner)
		assert.Equal(t, descriptor.TypeID("com.a.Box"), box.Fields[0].Owner)
	})

	t.Run("Unresolved references", func(t *testing.T) {
		assert.Equal(t, named("Ghost"), fieldType(t, g, "com.a.Box", "ghost"), "unresolved names are kept as written")
		assert.Equal(t, named("Dup"), fieldType(t, g, "com.a.Box", "dup"))

		require.Len(t, g.Unresolved, 2)
		byTarget := make(map[descriptor.TypeID]UnresolvedRelation)
		for _, u := range g.Unresolved {
			byTarget[u.Target] = u
		}
		assert.Equal(t, ReasonNoCandidate, byTarget["Ghost"].Reason)
		assert.Equal(t, RelationUsesType, byTarget["Ghost"].Kind)
		assert.Equal(t, descriptor.TypeID("com.a.Box"), byTarget["Ghost"].From)
		assert.Equal(t, ReasonAmbiguous, byTarget["Dup"].Reason)
		assert.ElementsMatch(t, []descriptor.TypeID{"x.Dup", "y.Dup"}, byTarget["Dup"].Candidates)

		assert.Equal(t, map[UnresolvedReason]int{ReasonNoCandidate: 1, ReasonAmbiguous: 1}, g.UnresolvedReasonCounts())
	})

	t.Run("Edges", func(t *testing.T) {
		assert.Contains(t, g.Edges, Edge{From: "com.a.Box", To: "com.a.Base", Kind: RelationExtends})
		assert.Contains(t, g.Edges, Edge{From: "com.a.Box", To: "Comparable", Kind: RelationImplements})
		assert.Contains(t, g.Edges, Edge{From: "com.a.Box.Node", To: "com.a.Box", Kind: RelationNestedIn})
		assert.Contains(t, g.Edges, Edge{From: "List", To: "Collection", Kind: RelationExtends}, "interfaces extend interfaces")

		assert.Equal(t, []descriptor.TypeID{"com.a.Base", "Comparable"}, g.Supertypes("com.a.Box"))
		assert.Equal(t, []descriptor.TypeID{"com.a.Box"}, g.Subtypes("com.a.Base"))
		assert.Equal(t, []descriptor.TypeID{"com.a.Box.Node"}, g.InnerTypes("com.a.Box"))
	})
}

func TestGraph_RemoveFile(t *testing.T) {
	g := sampleGraph()
	g.LinkRelations()

	removed := g.RemoveFile("a/Base.java")
	assert.Equal(t, []descriptor.TypeID{"com.a.Base"}, removed)
	assert.Nil(t, g.RemoveFile("a/Base.java"), "removing twice is a no-op")

	g.LinkRelations()
	_, ok := g.Lookup("com.a.Base")
	assert.False(t, ok)

	box, _ := g.Lookup("com.a.Box")
	assert.Equal(t, named("Base"), box.Super)
	var reason UnresolvedReason
	for _, u := range g.Unresolved {
		if u.Target == "Base" {
			reason = u.Reason
			assert.Equal(t, RelationExtends, u.Kind)
		}
	}
	assert.Equal(t, ReasonSourceMissing, reason)
	assert.Empty(t, g.Subtypes("com.a.Base"))

	t.Run("Re-adding restores the link", func(t *testing.T) {
		g.AddUnit(&Unit{Path: "a/Base.java", Package: "com.a", Decls: []*descriptor.TypeDecl{{ID: "com.a.Base"}}})
		g.LinkRelations()
		box, _ := g.Lookup("com.a.Box")
		assert.Equal(t, named("com.a.Base"), box.Super)
	})
}

func TestGraph_AddUnitReplaces(t *testing.T) {
	g := NewGraph()
	g.AddUnit(&Unit{Path: "A.java", Decls: []*descriptor.TypeDecl{{ID: "A"}, {ID: "B"}}})
	g.AddUnit(&Unit{Path: "A.java", Decls: []*descriptor.TypeDecl{{ID: "A"}}})

	assert.Equal(t, []descriptor.TypeID{"A"}, g.Types())
	assert.Equal(t, []string{"A.java"}, g.Units())
	assert.Equal(t, "A.java", g.FileOf("A"))
	assert.Empty(t, g.Find("B"))
}

func TestGraph_Find(t *testing.T) {
	g := sampleGraph()
	assert.Equal(t, []descriptor.TypeID{"com.a.Box"}, g.Find("com.a.Box"))
	assert.Equal(t, []descriptor.TypeID{"com.a.Box"}, g.Find("Box"))
	assert.Len(t, g.Find("Dup"), 2)
	assert.Empty(t, g.Find("Missing"))
}

func TestGraph_AddFile(t *testing.T) {
	ext, err := extractor.NewExtractor("java")
	require.NoError(t, err)
	file, err := ext.Extract("p/Pair.java", []byte(`
package p;
import java.util.List;
public class Pair<A, B> implements Comparable<Pair<A, B>> {
    List<A> left;
}
`))
	require.NoError(t, err)

	g := NewGraph().WithCoreTypes()
	g.AddFile(file)
	g.LinkRelations()

	unit, ok := g.Unit("p/Pair.java")
	require.True(t, ok)
	assert.Equal(t, file.ContentHash, unit.ContentHash)
	assert.Equal(t, param("List", tvar("A")), fieldType(t, g, "p.Pair", "left"))
	assert.Contains(t, g.Subtypes("Comparable"), descriptor.TypeID("p.Pair"))
	assert.Empty(t, g.Unresolved)

	stats := g.Stats()
	assert.Equal(t, 1, stats.Units)
	assert.Equal(t, len(CoreTypes())+1, stats.Types)
}

func TestCoreTypes(t *testing.T) {
	g := NewGraph().WithCoreTypes()
	g.LinkRelations()
	assert.Empty(t, g.Unresolved, "core types only refer to each other")

	for _, id := range []descriptor.TypeID{descriptor.Object, "String", "Integer", "List", "Map", "Enum"} {
		_, ok := g.Lookup(id)
		assert.True(t, ok, id)
	}
	assert.Contains(t, g.Subtypes("Number"), descriptor.TypeID("Integer"))
}

func TestGraph_LinkType(t *testing.T) {
	g := sampleGraph()
	g.LinkRelations()
	before := len(g.Unresolved)

	linked, unresolved := g.LinkType(param("Map", named("Box"), param("List", named("Helper"))), "com.a", "com.b.Helper")
	assert.Equal(t, param("Map", named("com.a.Box"), param("List", named("com.b.Helper"))), linked)
	assert.Empty(t, unresolved)

	linked, unresolved = g.LinkType(param("Optional", named("Ghost")), "")
	assert.Equal(t, param("Optional", named("Ghost")), linked)
	require.Len(t, unresolved, 1)
	assert.Equal(t, ReasonNoCandidate, unresolved[0].Reason)
	assert.Len(t, g.Unresolved, before, "linking a type leaves the graph untouched")
}
