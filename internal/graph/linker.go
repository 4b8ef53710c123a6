package graph

import (
	"strings"

	"genres/internal/descriptor"
)

var primitives = map[descriptor.TypeID]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true,
}

// linker rewrites the type references of one declaration to declared ids.
type linker struct {
	g    *Graph
	decl *descriptor.TypeDecl
	unit *Unit
	seen map[descriptor.TypeID]bool

	unresolvedRels []UnresolvedRelation
}

// LinkType resolves the names in t the way a reference written in a unit of pkg with the
// given imports would be. Names left as written are returned as unresolved relations.
func (g *Graph) LinkType(t descriptor.Type, pkg string, imports ...string) (descriptor.Type, []UnresolvedRelation) {
	l := &linker{
		g:    g,
		decl: &descriptor.TypeDecl{},
		unit: &Unit{Package: pkg, Imports: imports},
		seen: make(map[descriptor.TypeID]bool),
	}
	return l.typ(t, RelationUsesType), l.unresolvedRels
}

func (l *linker) link() *descriptor.TypeDecl {
	d := *l.decl
	out := &d

	out.Vars = l.vars(d.Vars)
	if d.Super != nil {
		out.Super = l.typ(d.Super, RelationExtends)
	}
	kind := RelationImplements
	if d.Interface {
		kind = RelationExtends
	}
	out.Interfaces = l.types(d.Interfaces, kind)

	out.Fields = make([]descriptor.FieldDecl, len(d.Fields))
	for i, f := range d.Fields {
		f.Type = l.typ(f.Type, RelationUsesType)
		f.Owner = d.ID
		out.Fields[i] = f
	}
	out.Methods = make([]descriptor.MethodDecl, len(d.Methods))
	for i, m := range d.Methods {
		m.Vars = l.vars(m.Vars)
		m.Params = l.types(m.Params, RelationUsesType)
		if m.Return != nil {
			m.Return = l.typ(m.Return, RelationUsesType)
		}
		m.Owner = d.ID
		out.Methods[i] = m
	}
	return out
}

func (l *linker) vars(vars []descriptor.TypeVar) []descriptor.TypeVar {
	if vars == nil {
		return nil
	}
	out := make([]descriptor.TypeVar, len(vars))
	for i, v := range vars {
		out[i] = descriptor.TypeVar{Name: v.Name, Bounds: l.types(v.Bounds, RelationUsesType)}
	}
	return out
}

func (l *linker) types(ts []descriptor.Type, kind RelationKind) []descriptor.Type {
	if ts == nil {
		return nil
	}
	out := make([]descriptor.Type, len(ts))
	for i, t := range ts {
		out[i] = l.typ(t, kind)
	}
	return out
}

func (l *linker) typ(t descriptor.Type, kind RelationKind) descriptor.Type {
	switch typ := t.(type) {
	case descriptor.Concrete:
		return descriptor.Concrete{ID: l.resolve(typ.ID, kind)}
	case descriptor.Parameterized:
		return descriptor.Parameterized{Base: l.resolve(typ.Base, kind), Args: l.types(typ.Args, RelationUsesType)}
	case descriptor.Variable:
		return typ
	case descriptor.Array:
		return descriptor.Array{Elem: l.typ(typ.Elem, RelationUsesType)}
	case descriptor.Wildcard:
		return descriptor.Wildcard{Upper: l.types(typ.Upper, RelationUsesType), Lower: l.types(typ.Lower, RelationUsesType)}
	default:
		return t
	}
}

// resolve tries, in order: types nested in the declaration and its outer types, the
// unit's package, explicit and on-demand imports, the name as written, and finally a
// unique simple name anywhere in the graph.
func (l *linker) resolve(name descriptor.TypeID, kind RelationKind) descriptor.TypeID {
	if primitives[name] {
		return name
	}
	candidates := l.candidates(name)
	for _, c := range candidates {
		if _, ok := l.g.declared[c]; ok {
			return c
		}
	}

	ids := l.g.nameIndex[simpleName(name)]
	if len(ids) == 1 {
		return ids[0]
	}
	reason := ReasonNoCandidate
	switch {
	case len(ids) > 1:
		reason = ReasonAmbiguous
	case l.wasRemoved(candidates):
		reason = ReasonSourceMissing
	}
	l.unresolved(name, kind, reason, ids)
	return name
}

func (l *linker) candidates(name descriptor.TypeID) []descriptor.TypeID {
	var out []descriptor.TypeID
	for cur := l.decl; cur != nil && cur.ID != ""; {
		out = append(out, cur.ID+"."+name)
		if cur.Outer == "" {
			break
		}
		cur = l.g.declared[cur.Outer]
	}

	if l.unit != nil {
		if l.unit.Package != "" {
			out = append(out, descriptor.TypeID(l.unit.Package+".")+name)
		}
		head, rest := string(name), ""
		if i := strings.Index(head, "."); i >= 0 {
			head, rest = head[:i], head[i:]
		}
		for _, imp := range l.unit.Imports {
			switch {
			case strings.HasSuffix(imp, ".*"):
				out = append(out, descriptor.TypeID(strings.TrimSuffix(imp, "*"))+name)
			case imp == head || strings.HasSuffix(imp, "."+head):
				out = append(out, descriptor.TypeID(imp+rest))
			}
		}
	}
	return append(out, name)
}

func (l *linker) wasRemoved(candidates []descriptor.TypeID) bool {
	for _, c := range candidates {
		if l.g.removed[c] {
			return true
		}
	}
	return false
}

func (l *linker) unresolved(name descriptor.TypeID, kind RelationKind, reason UnresolvedReason, candidates []descriptor.TypeID) {
	if l.seen[name] {
		return
	}
	l.seen[name] = true
	l.unresolvedRels = append(l.unresolvedRels, UnresolvedRelation{
		From:       l.decl.ID,
		Target:     name,
		Kind:       kind,
		Reason:     reason,
		Candidates: append([]descriptor.TypeID(nil), candidates...),
		Evidence:   l.decl.Source,
	})
}
