package resolver

import (
	"fmt"

	"genres/internal/descriptor"
)

// Erase resolves t to its nominal type. Variables are looked up in b, wildcards erase to
// their first upper bound and arrays to an array of the erased element.
func Erase(t descriptor.Type, b descriptor.Bindings) (descriptor.TypeID, error) {
	switch typ := t.(type) {
	case descriptor.Concrete:
		return typ.ID, nil
	case descriptor.Parameterized:
		return typ.Base, nil
	case descriptor.Variable:
		v, ok := b.Get(typ.Name)
		if !ok {
			return "", NewUnknownVariableError(typ.Name)
		}
		// values are terminal; dropping the name keeps a self-reference from looping
		return Erase(v, b.Without(typ.Name))
	case descriptor.Array:
		elem, err := Erase(typ.Elem, b)
		if err != nil {
			return "", err
		}
		return descriptor.ArrayOf(elem), nil
	case descriptor.Wildcard:
		return Erase(typ.UpperOf()[0], b)
	default:
		panic(fmt.Sprintf("resolver: unexpected descriptor %T", t))
	}
}

// EraseLoose is Erase with unknown variables degraded to Object.
// It backs raw resolution only; regular resolution must use Erase.
func EraseLoose(t descriptor.Type, b descriptor.Bindings) descriptor.TypeID {
	switch typ := t.(type) {
	case descriptor.Concrete:
		return typ.ID
	case descriptor.Parameterized:
		return typ.Base
	case descriptor.Variable:
		v, ok := b.Get(typ.Name)
		if !ok {
			return descriptor.Object
		}
		return EraseLoose(v, b.Without(typ.Name))
	case descriptor.Array:
		return descriptor.ArrayOf(EraseLoose(typ.Elem, b))
	case descriptor.Wildcard:
		return EraseLoose(typ.UpperOf()[0], b)
	default:
		panic(fmt.Sprintf("resolver: unexpected descriptor %T", t))
	}
}

// Substitute replaces every variable in t with its binding. It performs exactly one
// rewrite pass: a substituted value is never expanded again.
func Substitute(t descriptor.Type, b descriptor.Bindings) (descriptor.Type, error) {
	switch typ := t.(type) {
	case descriptor.Concrete:
		return typ, nil
	case descriptor.Parameterized:
		args, err := substituteAll(typ.Args, b)
		if err != nil {
			return nil, err
		}
		return descriptor.Parameterized{Base: typ.Base, Args: args}, nil
	case descriptor.Variable:
		v, ok := b.Get(typ.Name)
		if !ok {
			return nil, NewUnknownVariableError(typ.Name)
		}
		return v, nil
	case descriptor.Array:
		elem, err := Substitute(typ.Elem, b)
		if err != nil {
			return nil, err
		}
		return descriptor.Array{Elem: elem}, nil
	case descriptor.Wildcard:
		upper, err := substituteAll(typ.Upper, b)
		if err != nil {
			return nil, err
		}
		lower, err := substituteAll(typ.Lower, b)
		if err != nil {
			return nil, err
		}
		return descriptor.Wildcard{Upper: upper, Lower: lower}, nil
	default:
		panic(fmt.Sprintf("resolver: unexpected descriptor %T", t))
	}
}

func substituteAll(ts []descriptor.Type, b descriptor.Bindings) ([]descriptor.Type, error) {
	if ts == nil {
		return nil, nil
	}
	out := make([]descriptor.Type, len(ts))
	for i, t := range ts {
		s, err := Substitute(t, b)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ResolveArgumentsOf returns the erased arguments of a parameterized descriptor
// (after variable lookup), or nothing for other descriptors.
func ResolveArgumentsOf(t descriptor.Type, b descriptor.Bindings) ([]descriptor.TypeID, error) {
	if v, ok := t.(descriptor.Variable); ok {
		val, found := b.Get(v.Name)
		if !found {
			return nil, NewUnknownVariableError(v.Name)
		}
		return ResolveArgumentsOf(val, b.Without(v.Name))
	}
	p, ok := t.(descriptor.Parameterized)
	if !ok {
		return nil, nil
	}
	out := make([]descriptor.TypeID, len(p.Args))
	for i, a := range p.Args {
		id, err := Erase(a, b)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// DefaultBindings binds variables that received no value from outside to their declared
// bounds: no bound gives Object, a single bound gives that bound and an intersection gives
// an upper-bounded wildcard. References between the variables (including self references
// such as T extends Comparable<T>) are replaced by the raw erasure of the referenced
// variable, so the result never contains the variables being defaulted.
// known supplies already resolved outer variables.
func DefaultBindings(vars []descriptor.TypeVar, known descriptor.Bindings) (descriptor.Bindings, error) {
	byName := make(map[string]descriptor.TypeVar, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}

	raw := descriptor.Bindings{}
	for _, v := range vars {
		id, err := rawBound(v, byName, known, map[string]bool{})
		if err != nil {
			return descriptor.Bindings{}, err
		}
		raw = raw.With(v.Name, descriptor.Named(id))
	}
	scope := known.Merge(raw)

	out := descriptor.Bindings{}
	for _, v := range vars {
		switch len(v.Bounds) {
		case 0:
			out = out.With(v.Name, descriptor.Named(descriptor.Object))
		case 1:
			bound, err := Substitute(v.Bounds[0], scope)
			if err != nil {
				return descriptor.Bindings{}, err
			}
			out = out.With(v.Name, bound)
		default:
			bounds, err := substituteAll(v.Bounds, scope)
			if err != nil {
				return descriptor.Bindings{}, err
			}
			out = out.With(v.Name, descriptor.Wildcard{Upper: bounds})
		}
	}
	return out, nil
}

func rawBound(v descriptor.TypeVar, vars map[string]descriptor.TypeVar, known descriptor.Bindings, visiting map[string]bool) (descriptor.TypeID, error) {
	if len(v.Bounds) == 0 || visiting[v.Name] {
		return descriptor.Object, nil
	}
	visiting[v.Name] = true
	first := v.Bounds[0]
	if ref, ok := first.(descriptor.Variable); ok {
		if other, declared := vars[ref.Name]; declared {
			return rawBound(other, vars, known, visiting)
		}
		return Erase(ref, known)
	}
	return EraseLoose(first, known), nil
}
