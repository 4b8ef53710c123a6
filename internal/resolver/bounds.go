package resolver

import (
	"fmt"

	"genres/internal/descriptor"
)

// UpperBounds returns the erasures t is assignable to: the type itself for nominal and
// parameterized types, the bound list for wildcards and repackaged intersection variables,
// and the element bounds wrapped in arrays for arrays.
func UpperBounds(t descriptor.Type, b descriptor.Bindings) ([]descriptor.TypeID, error) {
	switch typ := t.(type) {
	case descriptor.Concrete, descriptor.Parameterized:
		id, err := Erase(typ, b)
		if err != nil {
			return nil, err
		}
		return []descriptor.TypeID{id}, nil
	case descriptor.Variable:
		v, ok := b.Get(typ.Name)
		if !ok {
			return nil, NewUnknownVariableError(typ.Name)
		}
		return UpperBounds(v, b.Without(typ.Name))
	case descriptor.Wildcard:
		upper := typ.UpperOf()
		out := make([]descriptor.TypeID, 0, len(upper))
		for _, u := range upper {
			id, err := Erase(u, b)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		return out, nil
	case descriptor.Array:
		elems, err := UpperBounds(typ.Elem, b)
		if err != nil {
			return nil, err
		}
		out := make([]descriptor.TypeID, len(elems))
		for i, e := range elems {
			out[i] = descriptor.ArrayOf(e)
		}
		return out, nil
	default:
		panic(fmt.Sprintf("resolver: unexpected descriptor %T", t))
	}
}

// IsAssignable reports whether a value of type from can be assigned to to, following the
// supertypes and interfaces declared in reg. Arrays are covariant; every type is
// assignable to Object.
func IsAssignable(reg descriptor.Registry, from, to descriptor.TypeID) bool {
	if from == to || to == descriptor.Object {
		return true
	}
	if from.IsArray() || to.IsArray() {
		if from.IsArray() && to.IsArray() {
			return IsAssignable(reg, from.Elem(), to.Elem())
		}
		return false
	}
	if reg == nil || from == descriptor.Object {
		return false
	}

	seen := map[descriptor.TypeID]bool{from: true}
	queue := []descriptor.TypeID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		decl, ok := reg.Lookup(cur)
		if !ok {
			continue
		}
		for _, p := range decl.Parents() {
			id := EraseLoose(p, descriptor.Bindings{})
			if id == to {
				return true
			}
			if !seen[id] {
				seen[id] = true
				queue = append(queue, id)
			}
		}
	}
	return false
}

// IsAssignableBounds reports whether a type bounded by one can be assigned to a type
// bounded by two: every bound of two must be satisfied by at least one bound of one.
func IsAssignableBounds(reg descriptor.Registry, one, two []descriptor.TypeID) bool {
	for _, target := range two {
		ok := false
		for _, src := range one {
			if IsAssignable(reg, src, target) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// IsCompatible reports whether either type is assignable to the other.
func IsCompatible(reg descriptor.Registry, a, b descriptor.TypeID) bool {
	return IsAssignable(reg, a, b) || IsAssignable(reg, b, a)
}
