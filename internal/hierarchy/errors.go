package hierarchy

import (
	"fmt"

	"genres/internal/descriptor"
)

// IllegalHierarchyError reports navigation to a type that is not part of a closure.
type IllegalHierarchyError struct {
	Root   descriptor.TypeID
	Target descriptor.TypeID
	Reason string
}

func (e *IllegalHierarchyError) Error() string {
	msg := fmt.Sprintf("type %s is not present in hierarchy of %s", e.Target, e.Root)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func NewIllegalHierarchyError(root, target descriptor.TypeID, reason string) *IllegalHierarchyError {
	return &IllegalHierarchyError{Root: root, Target: target, Reason: reason}
}

// MalformedDeclarationError reports declaration metadata the builder cannot use,
// such as an argument count that does not match the declared variables.
type MalformedDeclarationError struct {
	Type   descriptor.TypeID
	Reason string
}

func (e *MalformedDeclarationError) Error() string {
	return fmt.Sprintf("malformed declaration of %s: %s", e.Type, e.Reason)
}

func NewMalformedDeclarationError(id descriptor.TypeID, format string, args ...interface{}) *MalformedDeclarationError {
	return &MalformedDeclarationError{Type: id, Reason: fmt.Sprintf(format, args...)}
}
