package navigator

import (
	"errors"

	"genres/internal/descriptor"
	"genres/internal/resolver"
)

// scope holds the bindings a context resolves against. Every resolution error passes
// through wrap, which attaches the current type to unknown variable failures.
type scope struct {
	current  descriptor.TypeID
	bindings descriptor.Bindings
}

func (s scope) wrap(err error) error {
	var unknown *resolver.UnknownVariableError
	if errors.As(err, &unknown) {
		return unknown.WithType(s.current)
	}
	return err
}

// CurrentType is the type whose bindings the context resolves against.
func (s scope) CurrentType() descriptor.TypeID {
	return s.current
}

// Bindings returns all variables visible in the context, outer type variables first.
func (s scope) Bindings() descriptor.Bindings {
	return s.bindings
}

// ResolveClass erases t using the context bindings, e.g. T resolves to Long in the
// context of B when A extends B<Long>.
func (s scope) ResolveClass(t descriptor.Type) (descriptor.TypeID, error) {
	id, err := resolver.Erase(t, s.bindings)
	return id, s.wrap(err)
}

// ResolveRawClass erases t without failing: variables the context does not know erase
// to Object.
func (s scope) ResolveRawClass(t descriptor.Type) descriptor.TypeID {
	return resolver.EraseLoose(t, s.bindings)
}

// ResolveType replaces every variable in t with its binding.
func (s scope) ResolveType(t descriptor.Type) (descriptor.Type, error) {
	out, err := resolver.Substitute(t, s.bindings)
	if err != nil {
		return nil, s.wrap(err)
	}
	return out, nil
}

// ResolveGenericsOf returns the erased arguments of t, or nil when t is not parameterized.
func (s scope) ResolveGenericsOf(t descriptor.Type) ([]descriptor.TypeID, error) {
	ids, err := resolver.ResolveArgumentsOf(t, s.bindings)
	if err != nil {
		return nil, s.wrap(err)
	}
	return ids, nil
}

// ResolveGenericOf returns the first erased argument of t, or "" when there is none.
func (s scope) ResolveGenericOf(t descriptor.Type) (descriptor.TypeID, error) {
	ids, err := s.ResolveGenericsOf(t)
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

// ToStringType renders t with all variables resolved.
func (s scope) ToStringType(t descriptor.Type) (string, error) {
	out, err := resolver.Format(t, s.bindings)
	return out, s.wrap(err)
}

func (s scope) toStrings(ts []descriptor.Type) ([]string, error) {
	out := make([]string, len(ts))
	for i, t := range ts {
		str, err := s.ToStringType(t)
		if err != nil {
			return nil, err
		}
		out[i] = str
	}
	return out, nil
}

func (s scope) classes(ts []descriptor.Type) ([]descriptor.TypeID, error) {
	out := make([]descriptor.TypeID, len(ts))
	for i, t := range ts {
		id, err := s.ResolveClass(t)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
