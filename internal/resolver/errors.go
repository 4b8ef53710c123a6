package resolver

import (
	"fmt"

	"genres/internal/descriptor"
)

// UnknownVariableError reports a descriptor that references a variable the active
// bindings do not provide. Type names the context the lookup happened in, once known.
type UnknownVariableError struct {
	Name string
	Type descriptor.TypeID
}

func (e *UnknownVariableError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unknown type variable %s in context of %s", e.Name, e.Type)
	}
	return fmt.Sprintf("unknown type variable %s", e.Name)
}

func NewUnknownVariableError(name string) *UnknownVariableError {
	return &UnknownVariableError{Name: name}
}

// WithType returns a copy annotated with the context type.
func (e *UnknownVariableError) WithType(id descriptor.TypeID) *UnknownVariableError {
	return &UnknownVariableError{Name: e.Name, Type: id}
}
