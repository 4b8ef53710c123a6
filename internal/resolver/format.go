package resolver

import (
	"fmt"
	"strings"

	"genres/internal/descriptor"
)

// Format renders t with every variable substituted from b, e.g. "Map<String, List<Integer>>".
// Unresolved variables never reach the output: an unknown name is an error.
func Format(t descriptor.Type, b descriptor.Bindings) (string, error) {
	var sb strings.Builder
	if err := format(&sb, t, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func format(sb *strings.Builder, t descriptor.Type, b descriptor.Bindings) error {
	switch typ := t.(type) {
	case descriptor.Concrete:
		sb.WriteString(string(typ.ID))
	case descriptor.Parameterized:
		sb.WriteString(string(typ.Base))
		sb.WriteByte('<')
		for i, a := range typ.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := format(sb, a, b); err != nil {
				return err
			}
		}
		sb.WriteByte('>')
	case descriptor.Variable:
		v, ok := b.Get(typ.Name)
		if !ok {
			return NewUnknownVariableError(typ.Name)
		}
		return format(sb, v, b.Without(typ.Name))
	case descriptor.Array:
		if err := format(sb, typ.Elem, b); err != nil {
			return err
		}
		sb.WriteString("[]")
	case descriptor.Wildcard:
		switch {
		case len(typ.Lower) > 0:
			sb.WriteString("? super ")
			return formatJoined(sb, typ.Lower, b)
		case len(typ.Upper) == 0 || (len(typ.Upper) == 1 && descriptor.IsObject(typ.Upper[0])):
			sb.WriteByte('?')
		default:
			sb.WriteString("? extends ")
			return formatJoined(sb, typ.Upper, b)
		}
	default:
		panic(fmt.Sprintf("resolver: unexpected descriptor %T", t))
	}
	return nil
}

func formatJoined(sb *strings.Builder, ts []descriptor.Type, b descriptor.Bindings) error {
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(" & ")
		}
		if err := format(sb, t, b); err != nil {
			return err
		}
	}
	return nil
}

// FormatWithBindings renders a declared type with its variables replaced by their
// bindings, e.g. "Base<Integer>". Non-generic types render as their id.
func FormatWithBindings(decl *descriptor.TypeDecl, b descriptor.Bindings) (string, error) {
	if decl.Arity() == 0 {
		return string(decl.ID), nil
	}
	args := make([]descriptor.Type, len(decl.Vars))
	for i, v := range decl.Vars {
		args[i] = descriptor.Var(v.Name)
	}
	return Format(descriptor.Param(decl.ID, args...), b)
}

// FormatDeclaration renders a declared type with its variable names and bounds,
// e.g. "Base<T extends Number, K>".
func FormatDeclaration(decl *descriptor.TypeDecl) string {
	if decl.Arity() == 0 {
		return string(decl.ID)
	}
	parts := make([]string, len(decl.Vars))
	for i, v := range decl.Vars {
		parts[i] = formatVar(v)
	}
	return string(decl.ID) + "<" + strings.Join(parts, ", ") + ">"
}

func formatVar(v descriptor.TypeVar) string {
	if len(v.Bounds) == 0 || (len(v.Bounds) == 1 && descriptor.IsObject(v.Bounds[0])) {
		return v.Name
	}
	bounds := make([]string, len(v.Bounds))
	for i, b := range v.Bounds {
		bounds[i] = b.String()
	}
	return v.Name + " extends " + strings.Join(bounds, " & ")
}
