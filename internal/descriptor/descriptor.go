package descriptor

import (
	"fmt"
	"strings"
)

// TypeID identifies a nominal type. Array erasures carry a "[]" suffix per dimension.
type TypeID string

// Object is the root of every hierarchy and the least specific upper bound.
const Object TypeID = "Object"

const arraySuffix = "[]"

// ArrayOf returns the id of an array whose elements are id.
func ArrayOf(id TypeID) TypeID {
	return id + arraySuffix
}

func (id TypeID) IsArray() bool {
	return strings.HasSuffix(string(id), arraySuffix)
}

// Elem strips one array dimension. Non-array ids are returned unchanged.
func (id TypeID) Elem() TypeID {
	return TypeID(strings.TrimSuffix(string(id), arraySuffix))
}

func (id TypeID) String() string {
	return string(id)
}

// Kind identifies the category of a type descriptor.
type Kind int

const (
	KindConcrete Kind = iota
	KindParameterized
	KindVariable
	KindArray
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindConcrete:
		return "Concrete"
	case KindParameterized:
		return "Parameterized"
	case KindVariable:
		return "Variable"
	case KindArray:
		return "Array"
	case KindWildcard:
		return "Wildcard"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a reference to a type as written in a declaration.
// The set of implementations is closed: Concrete, Parameterized, Variable, Array and Wildcard.
type Type interface {
	Kind() Kind
	String() string
	sealed()
}

// Concrete is a nominal type reference without arguments (also a raw use of a generic type).
type Concrete struct {
	ID TypeID
}

// Parameterized is a generic type applied to arguments.
type Parameterized struct {
	Base TypeID
	Args []Type
}

// Variable references a type variable declared by an enclosing type or method.
type Variable struct {
	Name string
}

// Array is an array of Elem.
type Array struct {
	Elem Type
}

// Wildcard is "?", "? extends U" or "? super L".
// Several upper bounds only appear for repackaged intersection-bound variables.
type Wildcard struct {
	Upper []Type
	Lower []Type
}

func (Concrete) Kind() Kind      { return KindConcrete }
func (Parameterized) Kind() Kind { return KindParameterized }
func (Variable) Kind() Kind      { return KindVariable }
func (Array) Kind() Kind         { return KindArray }
func (Wildcard) Kind() Kind      { return KindWildcard }

func (Concrete) sealed()      {}
func (Parameterized) sealed() {}
func (Variable) sealed()      {}
func (Array) sealed()         {}
func (Wildcard) sealed()      {}

func (t Concrete) String() string { return string(t.ID) }

func (t Parameterized) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return string(t.Base) + "<" + strings.Join(parts, ", ") + ">"
}

func (t Variable) String() string { return t.Name }

func (t Array) String() string { return t.Elem.String() + arraySuffix }

func (t Wildcard) String() string {
	if len(t.Lower) > 0 {
		return "? super " + joinTypes(t.Lower, " & ")
	}
	if len(t.Upper) == 0 || (len(t.Upper) == 1 && IsObject(t.Upper[0])) {
		return "?"
	}
	return "? extends " + joinTypes(t.Upper, " & ")
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

// Named is a shorthand for Concrete{ID: id}.
func Named(id TypeID) Type {
	return Concrete{ID: id}
}

// Param is a shorthand for a parameterized type.
func Param(base TypeID, args ...Type) Type {
	return Parameterized{Base: base, Args: args}
}

// Var is a shorthand for a variable reference.
func Var(name string) Type {
	return Variable{Name: name}
}

// ArrayType is a shorthand for an array of elem.
func ArrayType(elem Type) Type {
	return Array{Elem: elem}
}

// Extends builds "? extends upper...".
func Extends(upper ...Type) Type {
	return Wildcard{Upper: upper}
}

// Super builds "? super lower".
func Super(lower Type) Type {
	return Wildcard{Lower: []Type{lower}}
}

// Unbounded builds "?".
func Unbounded() Type {
	return Wildcard{}
}

// IsObject reports whether t is exactly the root object type.
func IsObject(t Type) bool {
	c, ok := t.(Concrete)
	return ok && c.ID == Object
}

// UpperOf returns the upper bounds of a wildcard, defaulting to Object.
func (t Wildcard) UpperOf() []Type {
	if len(t.Upper) == 0 {
		return []Type{Named(Object)}
	}
	return t.Upper
}

// LowerBounds returns the declared lower bounds of a wildcard, nil for anything else.
func LowerBounds(t Type) []Type {
	if w, ok := t.(Wildcard); ok && len(w.Lower) > 0 {
		return w.Lower
	}
	return nil
}

// Equal reports structural equality of two descriptors.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Concrete:
		y, ok := b.(Concrete)
		return ok && x.ID == y.ID
	case Parameterized:
		y, ok := b.(Parameterized)
		return ok && x.Base == y.Base && equalAll(x.Args, y.Args)
	case Variable:
		y, ok := b.(Variable)
		return ok && x.Name == y.Name
	case Array:
		y, ok := b.(Array)
		return ok && Equal(x.Elem, y.Elem)
	case Wildcard:
		y, ok := b.(Wildcard)
		return ok && equalAll(x.UpperOf(), y.UpperOf()) && equalAll(x.Lower, y.Lower)
	default:
		panic(fmt.Sprintf("descriptor: unexpected type %T", a))
	}
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// FreeVariables lists the variable names referenced by t in order of first appearance.
func FreeVariables(t Type) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Type)
	walk = func(t Type) {
		switch typ := t.(type) {
		case Concrete:
		case Variable:
			if !seen[typ.Name] {
				seen[typ.Name] = true
				out = append(out, typ.Name)
			}
		case Parameterized:
			for _, a := range typ.Args {
				walk(a)
			}
		case Array:
			walk(typ.Elem)
		case Wildcard:
			for _, u := range typ.Upper {
				walk(u)
			}
			for _, l := range typ.Lower {
				walk(l)
			}
		default:
			panic(fmt.Sprintf("descriptor: unexpected type %T", t))
		}
	}
	walk(t)
	return out
}
