package compare

import (
	"genres/internal/descriptor"
	"genres/internal/resolver"
)

// walker visits two descriptors layer by layer: the descriptors themselves, then array
// elements or type arguments pairwise. It stops at the first incompatible layer.
type walker struct {
	lattice Lattice
	visitor *visitor
	// raw types expanded on the current path; self-referential bounds stop here
	expanding map[descriptor.TypeID]bool
}

func (w *walker) walk(one, two descriptor.Type) {
	if !w.visitor.compatible {
		return
	}
	one, two = clean(one), clean(two)
	if !w.isCompatible(one, two) {
		w.visitor.incompatible()
		return
	}
	w.visitor.next(one, two)

	oneArr, okOne := one.(descriptor.Array)
	twoArr, okTwo := two.(descriptor.Array)
	if okOne && okTwo {
		w.walk(oneArr.Elem, twoArr.Elem)
		return
	}

	oneArgs, twoArgs, expanded := w.aligned(one, two)
	for _, id := range expanded {
		w.expanding[id] = true
	}
	for i := range oneArgs {
		w.walk(oneArgs[i], twoArgs[i])
	}
	for _, id := range expanded {
		delete(w.expanding, id)
	}
}

// clean drops bounds that carry no information: ? extends Object, ? super Object and
// unbound variables all become Object.
func clean(t descriptor.Type) descriptor.Type {
	switch typ := t.(type) {
	case descriptor.Variable:
		return descriptor.Named(descriptor.Object)
	case descriptor.Wildcard:
		if len(typ.Lower) > 0 {
			if descriptor.IsObject(typ.Lower[0]) {
				return descriptor.Named(descriptor.Object)
			}
			return typ
		}
		upper := typ.UpperOf()
		if len(upper) == 1 && descriptor.IsObject(upper[0]) {
			return descriptor.Named(descriptor.Object)
		}
		return typ
	default:
		return t
	}
}

// isCompatible checks that some type satisfies both sides. A lower bound must fit under
// every upper bound of the other side; two lower bounds must be related.
func (w *walker) isCompatible(one, two descriptor.Type) bool {
	a, b := upperBounds(one), upperBounds(two)
	if !assignableBounds(w.lattice, a, b) && !assignableBounds(w.lattice, b, a) {
		return false
	}

	oneLower, twoLower := lowerBound(one), lowerBound(two)
	switch {
	case oneLower != "" && twoLower != "":
		return w.lattice.IsAssignable(oneLower, twoLower) || w.lattice.IsAssignable(twoLower, oneLower)
	case oneLower != "":
		return assignableBounds(w.lattice, []descriptor.TypeID{oneLower}, b)
	case twoLower != "":
		return assignableBounds(w.lattice, []descriptor.TypeID{twoLower}, a)
	default:
		return true
	}
}

// lowerBound erases the lower bound of a cleaned wildcard, "" when there is none.
func lowerBound(t descriptor.Type) descriptor.TypeID {
	lower := descriptor.LowerBounds(t)
	if len(lower) == 0 {
		return ""
	}
	return resolver.EraseLoose(lower[0], descriptor.Bindings{})
}

// aligned returns the argument lists to compare next. Bases must match; when they differ
// and the lattice can project, the more specific side is viewed as the other's base.
func (w *walker) aligned(one, two descriptor.Type) ([]descriptor.Type, []descriptor.Type, []descriptor.TypeID) {
	oneType, okOne := w.nominal(one)
	twoType, okTwo := w.nominal(two)
	switch {
	case okOne && !okTwo:
		twoType, okTwo = w.rawAs(two, oneType)
	case okTwo && !okOne:
		oneType, okOne = w.rawAs(one, twoType)
	}
	if !okOne || !okTwo {
		return nil, nil, nil
	}
	var expanded []descriptor.TypeID
	for _, t := range []descriptor.Type{one, two} {
		if c, raw := t.(descriptor.Concrete); raw {
			expanded = append(expanded, c.ID)
		}
	}

	if oneType.Base != twoType.Base {
		projector, ok := w.lattice.(Projector)
		if !ok {
			return nil, nil, nil
		}
		switch {
		case w.lattice.IsAssignable(oneType.Base, twoType.Base):
			oneType, ok = project(projector, oneType, twoType.Base)
		case w.lattice.IsAssignable(twoType.Base, oneType.Base):
			twoType, ok = project(projector, twoType, oneType.Base)
		default:
			ok = false
		}
		if !ok {
			return nil, nil, nil
		}
	}
	if len(oneType.Args) != len(twoType.Args) {
		return nil, nil, nil
	}
	return oneType.Args, twoType.Args, expanded
}

// nominal returns t as a parameterized type. Raw generic types are expanded to their
// declared bounds; non-generic types have nothing to compare.
func (w *walker) nominal(t descriptor.Type) (descriptor.Parameterized, bool) {
	switch typ := t.(type) {
	case descriptor.Parameterized:
		return typ, true
	case descriptor.Concrete:
		if w.expanding[typ.ID] {
			return descriptor.Parameterized{}, false
		}
		decl, ok := w.lattice.Lookup(typ.ID)
		if !ok || decl.Arity() == 0 {
			return descriptor.Parameterized{}, false
		}
		defaults, err := resolver.DefaultBindings(decl.Vars, descriptor.Bindings{})
		if err != nil {
			return descriptor.Parameterized{}, false
		}
		return descriptor.Parameterized{Base: typ.ID, Args: defaults.Values()}, true
	case descriptor.Wildcard:
		if len(typ.Lower) > 0 || len(typ.Upper) != 1 {
			return descriptor.Parameterized{}, false
		}
		return w.nominal(typ.Upper[0])
	default:
		return descriptor.Parameterized{}, false
	}
}

// rawAs reads a raw type without a known declaration as like's base with Object arguments.
func (w *walker) rawAs(t descriptor.Type, like descriptor.Parameterized) (descriptor.Parameterized, bool) {
	c, ok := t.(descriptor.Concrete)
	if !ok || c.ID != like.Base || w.expanding[c.ID] {
		return descriptor.Parameterized{}, false
	}
	args := make([]descriptor.Type, len(like.Args))
	for i := range args {
		args[i] = descriptor.Named(descriptor.Object)
	}
	return descriptor.Parameterized{Base: c.ID, Args: args}, true
}

func project(p Projector, t descriptor.Parameterized, ancestor descriptor.TypeID) (descriptor.Parameterized, bool) {
	out, err := p.Project(t, ancestor)
	if err != nil {
		return descriptor.Parameterized{}, false
	}
	param, ok := out.(descriptor.Parameterized)
	return param, ok
}
