package navigator

import (
	"fmt"
	"strings"

	"genres/internal/descriptor"
)

// Void is the erasure reported for methods without a return type.
const Void descriptor.TypeID = "void"

// MethodContext is the view of a method from its declaring type. The method's own
// variables shadow same-named type variables; unbound method variables resolve to
// their declared bounds.
type MethodContext struct {
	scope
	owner    *Context
	method   descriptor.MethodDecl
	generics descriptor.Bindings
}

func (m *MethodContext) Method() descriptor.MethodDecl {
	return m.method
}

// Owner is the context of the declaring type.
func (m *MethodContext) Owner() *Context {
	return m.owner
}

// Type leaves the method and switches to another type of the closure.
func (m *MethodContext) Type(id descriptor.TypeID) (*Context, error) {
	return m.owner.Type(id)
}

// MethodGenerics returns the method's own variables resolved to their bounds.
func (m *MethodContext) MethodGenerics() descriptor.Bindings {
	return m.generics
}

// ResolveParameters returns the erasures of the parameter types.
func (m *MethodContext) ResolveParameters() ([]descriptor.TypeID, error) {
	return m.classes(m.method.Params)
}

// ResolveParametersTypes returns the parameter types with all variables resolved.
func (m *MethodContext) ResolveParametersTypes() ([]descriptor.Type, error) {
	out := make([]descriptor.Type, len(m.method.Params))
	for i, p := range m.method.Params {
		t, err := m.ResolveType(p)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// ResolveReturnClass erases the return type; methods without one report Void.
func (m *MethodContext) ResolveReturnClass() (descriptor.TypeID, error) {
	if m.method.Return == nil {
		return Void, nil
	}
	return m.ResolveClass(m.method.Return)
}

// ResolveReturnType resolves the return type, nil for Void methods.
func (m *MethodContext) ResolveReturnType() (descriptor.Type, error) {
	if m.method.Return == nil {
		return nil, nil
	}
	return m.ResolveType(m.method.Return)
}

// ResolveReturnTypeGenerics returns the erased arguments of the return type.
func (m *MethodContext) ResolveReturnTypeGenerics() ([]descriptor.TypeID, error) {
	if m.method.Return == nil {
		return nil, nil
	}
	return m.ResolveGenericsOf(m.method.Return)
}

// ParameterType builds the inlying context of the i-th parameter type.
func (m *MethodContext) ParameterType(i int) (*Context, error) {
	return m.ParameterTypeAs(i, "")
}

func (m *MethodContext) ParameterTypeAs(i int, as descriptor.TypeID) (*Context, error) {
	if i < 0 || i >= len(m.method.Params) {
		return nil, fmt.Errorf("method %s has %d parameters, requested index %d", m.method.Name, len(m.method.Params), i)
	}
	return m.owner.inlying(m.scope, m.method.Params[i], as)
}

// ReturnType builds the inlying context of the return type.
func (m *MethodContext) ReturnType() (*Context, error) {
	return m.ReturnTypeAs("")
}

func (m *MethodContext) ReturnTypeAs(as descriptor.TypeID) (*Context, error) {
	if m.method.Return == nil {
		return nil, fmt.Errorf("method %s does not return a value", m.method.Name)
	}
	return m.owner.inlying(m.scope, m.method.Return, as)
}

// ToStringMethod renders the resolved signature, e.g. "List<Long> find(String, Long)".
func (m *MethodContext) ToStringMethod() (string, error) {
	ret := string(Void)
	if m.method.Return != nil {
		s, err := m.ToStringType(m.method.Return)
		if err != nil {
			return "", err
		}
		ret = s
	}
	params, err := m.toStrings(m.method.Params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s(%s)", ret, m.method.Name, strings.Join(params, ", ")), nil
}
