package graph

import (
	"sort"
	"strings"

	"genres/internal/descriptor"
)

// Graph is the declaration registry. Declarations are added as extracted, with type
// references written the way the source spells them; LinkRelations rewrites them to
// declared ids and rebuilds the edge set. Lookup serves the linked declarations.
//
// A Graph is not safe for concurrent modification. Once linked it may be read from any
// number of goroutines.
type Graph struct {
	Edges      []Edge
	Unresolved []UnresolvedRelation

	units    map[string]*Unit
	declared map[descriptor.TypeID]*descriptor.TypeDecl
	linked   map[descriptor.TypeID]*descriptor.TypeDecl
	origin   map[descriptor.TypeID]string
	removed  map[descriptor.TypeID]bool

	// Index for faster lookup: simple name -> ids
	nameIndex map[string][]descriptor.TypeID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		units:     make(map[string]*Unit),
		declared:  make(map[descriptor.TypeID]*descriptor.TypeDecl),
		linked:    make(map[descriptor.TypeID]*descriptor.TypeDecl),
		origin:    make(map[descriptor.TypeID]string),
		removed:   make(map[descriptor.TypeID]bool),
		nameIndex: make(map[string][]descriptor.TypeID),
	}
}

// AddUnit adds the declarations of a unit, replacing whatever the same path declared before.
func (g *Graph) AddUnit(u *Unit) {
	if u == nil {
		return
	}
	g.RemoveFile(u.Path)
	g.units[u.Path] = u
	for _, d := range u.Decls {
		g.addDecl(d, u.Path)
	}
}

// AddDecl adds a declaration that does not belong to any unit.
func (g *Graph) AddDecl(d *descriptor.TypeDecl) {
	g.addDecl(d, "")
}

func (g *Graph) addDecl(d *descriptor.TypeDecl, path string) {
	if d == nil {
		return
	}
	if _, ok := g.declared[d.ID]; !ok {
		name := simpleName(d.ID)
		g.nameIndex[name] = append(g.nameIndex[name], d.ID)
	}
	g.declared[d.ID] = d
	g.linked[d.ID] = d
	g.origin[d.ID] = path
	delete(g.removed, d.ID)
}

// RemoveFile drops every declaration of the unit at path and returns their ids.
func (g *Graph) RemoveFile(path string) []descriptor.TypeID {
	u, ok := g.units[path]
	if !ok {
		return nil
	}
	delete(g.units, path)

	var ids []descriptor.TypeID
	for _, d := range u.Decls {
		if g.origin[d.ID] != path {
			continue
		}
		ids = append(ids, d.ID)
		delete(g.declared, d.ID)
		delete(g.linked, d.ID)
		delete(g.origin, d.ID)
		g.removed[d.ID] = true

		name := simpleName(d.ID)
		g.nameIndex[name] = without(g.nameIndex[name], d.ID)
		if len(g.nameIndex[name]) == 0 {
			delete(g.nameIndex, name)
		}
	}
	return ids
}

// LinkRelations resolves every type reference to a declared id and rebuilds the edges.
// References without a unique candidate are kept as written and reported in Unresolved.
func (g *Graph) LinkRelations() {
	g.Edges = []Edge{} // Reset edges
	g.Unresolved = nil

	linked := make(map[descriptor.TypeID]*descriptor.TypeDecl, len(g.declared))
	for _, id := range g.Types() {
		l := &linker{g: g, decl: g.declared[id], unit: g.units[g.origin[id]], seen: make(map[descriptor.TypeID]bool)}
		linked[id] = l.link()
		g.Unresolved = append(g.Unresolved, l.unresolvedRels...)
	}
	g.linked = linked

	for _, id := range g.Types() {
		d := g.linked[id]
		if d.Super != nil {
			g.addEdge(id, d.Super, RelationExtends)
		}
		kind := RelationImplements
		if d.Interface {
			kind = RelationExtends
		}
		for _, iface := range d.Interfaces {
			g.addEdge(id, iface, kind)
		}
		if d.Outer != "" {
			if _, ok := g.linked[d.Outer]; ok {
				g.Edges = append(g.Edges, Edge{From: id, To: d.Outer, Kind: RelationNestedIn})
			}
		}
	}
}

func (g *Graph) addEdge(from descriptor.TypeID, t descriptor.Type, kind RelationKind) {
	var to descriptor.TypeID
	switch typ := t.(type) {
	case descriptor.Concrete:
		to = typ.ID
	case descriptor.Parameterized:
		to = typ.Base
	default:
		return
	}
	if _, ok := g.linked[to]; ok {
		g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind})
	}
}

// Lookup implements descriptor.Registry over the linked declarations.
func (g *Graph) Lookup(id descriptor.TypeID) (*descriptor.TypeDecl, bool) {
	d, ok := g.linked[id]
	return d, ok
}

// Types lists the declared ids in sorted order.
func (g *Graph) Types() []descriptor.TypeID {
	ids := make([]descriptor.TypeID, 0, len(g.declared))
	for id := range g.declared {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Units lists the unit paths in sorted order.
func (g *Graph) Units() []string {
	paths := make([]string, 0, len(g.units))
	for p := range g.units {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (g *Graph) Unit(path string) (*Unit, bool) {
	u, ok := g.units[path]
	return u, ok
}

// FileOf returns the path of the unit that declares id, "" for standalone declarations.
func (g *Graph) FileOf(id descriptor.TypeID) string {
	return g.origin[id]
}

// Find resolves a name typed by a user: an exact id first, then a unique simple name.
func (g *Graph) Find(name string) []descriptor.TypeID {
	if _, ok := g.declared[descriptor.TypeID(name)]; ok {
		return []descriptor.TypeID{descriptor.TypeID(name)}
	}
	return append([]descriptor.TypeID(nil), g.nameIndex[simpleName(descriptor.TypeID(name))]...)
}

// Supertypes returns the declared parents of id that are part of the graph.
func (g *Graph) Supertypes(id descriptor.TypeID) []descriptor.TypeID {
	var out []descriptor.TypeID
	for _, e := range g.Edges {
		if e.From == id && e.Kind != RelationNestedIn {
			out = append(out, e.To)
		}
	}
	return out
}

// Subtypes returns the types that directly extend or implement id.
func (g *Graph) Subtypes(id descriptor.TypeID) []descriptor.TypeID {
	var out []descriptor.TypeID
	for _, e := range g.Edges {
		if e.To == id && e.Kind != RelationNestedIn {
			out = append(out, e.From)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InnerTypes returns the types lexically nested in id.
func (g *Graph) InnerTypes(id descriptor.TypeID) []descriptor.TypeID {
	var out []descriptor.TypeID
	for _, e := range g.Edges {
		if e.To == id && e.Kind == RelationNestedIn {
			out = append(out, e.From)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func simpleName(id descriptor.TypeID) string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func without(ids []descriptor.TypeID, id descriptor.TypeID) []descriptor.TypeID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
