package hierarchy

import (
	"genres/internal/descriptor"
	"genres/internal/resolver"
)

// track derives the variables of impl from the known arguments of one of its ancestors.
// impl's hierarchy is built with its variables standing for themselves, the ancestor's
// binding templates are then matched against the known arguments.
func track(reg descriptor.Registry, impl, ancestor descriptor.TypeID, known descriptor.Bindings, outer *Closure, ignored []descriptor.TypeID) (descriptor.Bindings, error) {
	decl, ok := reg.Lookup(impl)
	if !ok {
		return descriptor.Bindings{}, NewMalformedDeclarationError(impl, "declaration not found")
	}
	if decl.Arity() == 0 {
		return descriptor.Bindings{}, nil
	}

	identity := make([]descriptor.Type, decl.Arity())
	own := make(map[string]bool, decl.Arity())
	for i, v := range decl.Vars {
		identity[i] = descriptor.Var(v.Name)
		own[v.Name] = true
	}
	symbolic, err := build(reg, impl, descriptor.NewBindings(decl.VarNames(), identity), outer, ignored)
	if err != nil {
		return descriptor.Bindings{}, err
	}
	templates, err := symbolic.Require(ancestor)
	if err != nil {
		return descriptor.Bindings{}, err
	}

	found := make(map[string]descriptor.Type)
	for _, name := range known.Names() {
		tmpl, ok := templates.Get(name)
		if !ok {
			continue
		}
		actual, _ := known.Get(name)
		match(tmpl, actual, own, found)
	}

	out := descriptor.Bindings{}
	for _, v := range decl.Vars {
		if t, ok := found[v.Name]; ok {
			out = out.With(v.Name, t)
		}
	}
	return out, nil
}

// match walks template and actual in lock step and records the first value seen for each
// of the tracked variables. Shapes that do not line up are skipped.
func match(tmpl, actual descriptor.Type, tracked map[string]bool, found map[string]descriptor.Type) {
	switch t := tmpl.(type) {
	case descriptor.Variable:
		if tracked[t.Name] {
			if _, done := found[t.Name]; !done {
				found[t.Name] = actual
			}
		}
	case descriptor.Parameterized:
		a, ok := actual.(descriptor.Parameterized)
		if !ok || a.Base != t.Base || len(a.Args) != len(t.Args) {
			return
		}
		for i := range t.Args {
			match(t.Args[i], a.Args[i], tracked, found)
		}
	case descriptor.Array:
		if a, ok := actual.(descriptor.Array); ok {
			match(t.Elem, a.Elem, tracked, found)
		}
	case descriptor.Wildcard:
		a, ok := actual.(descriptor.Wildcard)
		if !ok || len(a.Upper) != len(t.Upper) || len(a.Lower) != len(t.Lower) {
			return
		}
		for i := range t.Upper {
			match(t.Upper[i], a.Upper[i], tracked, found)
		}
		for i := range t.Lower {
			match(t.Lower[i], a.Lower[i], tracked, found)
		}
	}
}

// Project views t as a parameterization of one of its ancestors,
// e.g. ArrayList<String> projected on Collection is Collection<String>.
func Project(reg descriptor.Registry, t descriptor.Type, ancestor descriptor.TypeID) (descriptor.Type, error) {
	base := resolver.EraseLoose(t, descriptor.Bindings{})
	if base == ancestor {
		return t, nil
	}
	if ancestor == descriptor.Object {
		return descriptor.Named(descriptor.Object), nil
	}
	c, err := BuildInlying(reg, t, "", nil)
	if err != nil {
		return nil, err
	}
	b, err := c.Require(ancestor)
	if err != nil {
		return nil, err
	}
	decl, _ := reg.Lookup(ancestor)
	if decl.Arity() == 0 {
		return descriptor.Named(ancestor), nil
	}
	args := make([]descriptor.Type, decl.Arity())
	for i, v := range decl.Vars {
		args[i], _ = b.Get(v.Name)
	}
	return descriptor.Param(ancestor, args...), nil
}

// Lattice answers subtype questions from a registry. It satisfies the comparator's
// lattice and projector contracts.
type Lattice struct {
	reg descriptor.Registry
}

func NewLattice(reg descriptor.Registry) *Lattice {
	return &Lattice{reg: reg}
}

func (l *Lattice) Lookup(id descriptor.TypeID) (*descriptor.TypeDecl, bool) {
	return l.reg.Lookup(id)
}

func (l *Lattice) IsAssignable(from, to descriptor.TypeID) bool {
	return resolver.IsAssignable(l.reg, from, to)
}

func (l *Lattice) Project(t descriptor.Type, ancestor descriptor.TypeID) (descriptor.Type, error) {
	return Project(l.reg, t, ancestor)
}
