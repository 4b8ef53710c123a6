package extractor

import (
	"context"
	"fmt"

	"genres/internal/descriptor"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// ParseType reads a type written in Java syntax, such as "Map<K, List<? extends V>>[]".
// Names listed in vars are type variables; every other name is a nominal type.
func ParseType(src string, vars ...string) (descriptor.Type, error) {
	return parseType(src, newScope(vars...))
}

// ParseTypeParams reads a type parameter list without the angle brackets, such as
// "K, V extends Comparable<V>".
func ParseTypeParams(src string, vars ...string) ([]descriptor.TypeVar, error) {
	vs, _, err := parseTypeParams(src, newScope(vars...))
	return vs, err
}

func parseType(src string, sc *scope) (descriptor.Type, error) {
	body, code, err := parseProbe("class Probe { " + src + " probe; }")
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", src, err)
	}
	field := childOfType(body, "field_declaration")
	if field == nil {
		return nil, fmt.Errorf("invalid type %q", src)
	}
	t := typeOf(field.ChildByFieldName("type"), code, sc)
	if t == nil {
		return nil, fmt.Errorf("invalid type %q: void is not a value type", src)
	}
	return t, nil
}

func parseTypeParams(src string, sc *scope) ([]descriptor.TypeVar, *scope, error) {
	if src == "" {
		return nil, sc, nil
	}
	code := []byte("class Probe<" + src + "> {}")
	root, err := parseJava(code)
	if err != nil {
		return nil, sc, fmt.Errorf("invalid type parameters %q: %w", src, err)
	}
	class := childOfType(root, "class_declaration")
	if class == nil {
		return nil, sc, fmt.Errorf("invalid type parameters %q", src)
	}
	params := childOfType(class, "type_parameters")
	if params == nil {
		return nil, sc, fmt.Errorf("invalid type parameters %q", src)
	}
	return typeParameters(params, code, sc)
}

func parseProbe(src string) (*sitter.Node, []byte, error) {
	code := []byte(src)
	root, err := parseJava(code)
	if err != nil {
		return nil, nil, err
	}
	class := childOfType(root, "class_declaration")
	if class == nil {
		return nil, nil, fmt.Errorf("not a declaration")
	}
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil, nil, fmt.Errorf("not a declaration")
	}
	return body, code, nil
}

func parseJava(code []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error")
	}
	return root, nil
}
