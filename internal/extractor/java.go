package extractor

import (
	"fmt"
	"strings"

	"genres/internal/descriptor"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// JavaExtractor implements LanguageExtractor for Java.
type JavaExtractor struct{}

func (j *JavaExtractor) GetLanguage() *sitter.Language {
	return java.GetLanguage()
}

func (j *JavaExtractor) GetQuery() string {
	return `
		(import_declaration) @import
		(program (class_declaration) @type)
		(program (interface_declaration) @type)
		(program (enum_declaration) @type)
	`
}

func (j *JavaExtractor) PackageQuery() string {
	return `(package_declaration [(identifier) (scoped_identifier)] @pkg)`
}

func (j *JavaExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, file *File) error {
	switch captureName {
	case "import":
		if imp := importPath(node.Content(sourceCode)); imp != "" {
			file.Imports = append(file.Imports, imp)
		}
	case "type":
		return j.extractType(node, sourceCode, file, nil, nil)
	}
	return nil
}

// scope holds the type variables visible at a point of the source.
type scope struct {
	vars   map[string]bool
	parent *scope
}

func (s *scope) has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.vars[name] {
			return true
		}
	}
	return false
}

func (s *scope) with(vars []descriptor.TypeVar) *scope {
	if len(vars) == 0 {
		return s
	}
	out := &scope{vars: make(map[string]bool, len(vars)), parent: s}
	for _, v := range vars {
		out.vars[v.Name] = true
	}
	return out
}

func newScope(names ...string) *scope {
	s := &scope{vars: make(map[string]bool, len(names))}
	for _, n := range names {
		s.vars[n] = true
	}
	return s
}

func importPath(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "import"), ";")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "static ") {
		return ""
	}
	return strings.Join(strings.Fields(s), "")
}

func (j *JavaExtractor) extractType(node *sitter.Node, src []byte, file *File, outer *descriptor.TypeDecl, outerScope *scope) error {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return fmt.Errorf("line %d: type declaration without a name", node.StartPoint().Row+1)
	}
	name := nameNode.Content(src)

	decl := &descriptor.TypeDecl{
		Interface: node.Type() == "interface_declaration",
		Source: descriptor.Source{
			File:    file.Path,
			Line:    int(node.StartPoint().Row + 1),
			EndLine: int(node.EndPoint().Row + 1),
		},
	}
	switch {
	case outer != nil:
		decl.ID = outer.ID + descriptor.TypeID("."+name)
		decl.Outer = outer.ID
		decl.Static = hasModifier(node, src, "static") || decl.Interface || outer.Interface ||
			node.Type() == "enum_declaration"
	case file.Package != "":
		decl.ID = descriptor.TypeID(file.Package + "." + name)
	default:
		decl.ID = descriptor.TypeID(name)
	}

	// static members do not see the variables of their outer types
	sc := outerScope
	if decl.Static {
		sc = nil
	}
	var err error
	if params := childOfType(node, "type_parameters"); params != nil {
		decl.Vars, sc, err = typeParameters(params, src, sc)
		if err != nil {
			return err
		}
	}

	switch node.Type() {
	case "class_declaration":
		if sup := node.ChildByFieldName("superclass"); sup != nil && sup.NamedChildCount() > 0 {
			decl.Super = typeOf(sup.NamedChild(int(sup.NamedChildCount())-1), src, sc)
		}
		decl.Interfaces = typeList(childOfType(node, "super_interfaces"), src, sc)
	case "interface_declaration":
		decl.Interfaces = typeList(childOfType(node, "extends_interfaces"), src, sc)
	case "enum_declaration":
		decl.Super = descriptor.Param("Enum", descriptor.Named(decl.ID))
		decl.Interfaces = typeList(childOfType(node, "super_interfaces"), src, sc)
	}

	file.Decls = append(file.Decls, decl)

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	return j.extractBody(body, src, file, decl, sc)
}

func (j *JavaExtractor) extractBody(body *sitter.Node, src []byte, file *File, decl *descriptor.TypeDecl, sc *scope) error {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			decl.Fields = append(decl.Fields, fields(member, src, sc, decl.ID)...)
		case "method_declaration", "constructor_declaration":
			m, err := method(member, src, sc, decl.ID)
			if err != nil {
				return err
			}
			decl.Methods = append(decl.Methods, m)
		case "class_declaration", "interface_declaration", "enum_declaration":
			if err := j.extractType(member, src, file, decl, sc); err != nil {
				return err
			}
		case "enum_body_declarations":
			if err := j.extractBody(member, src, file, decl, sc); err != nil {
				return err
			}
		}
	}
	return nil
}

func fields(node *sitter.Node, src []byte, sc *scope, owner descriptor.TypeID) []descriptor.FieldDecl {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	base := typeOf(typeNode, src, sc)

	var out []descriptor.FieldDecl
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		out = append(out, descriptor.FieldDecl{
			Name:  nameNode.Content(src),
			Type:  withDimensions(base, child.ChildByFieldName("dimensions"), src),
			Owner: owner,
		})
	}
	return out
}

func method(node *sitter.Node, src []byte, sc *scope, owner descriptor.TypeID) (descriptor.MethodDecl, error) {
	m := descriptor.MethodDecl{Owner: owner}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		m.Name = nameNode.Content(src)
	}
	if params := childOfType(node, "type_parameters"); params != nil {
		var err error
		m.Vars, sc, err = typeParameters(params, src, sc)
		if err != nil {
			return m, err
		}
	}
	if node.Type() == "method_declaration" {
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			m.Return = withDimensions(typeOf(typeNode, src, sc), node.ChildByFieldName("dimensions"), src)
		}
	}

	params := node.ChildByFieldName("parameters")
	if params == nil {
		return m, nil
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			if typeNode := p.ChildByFieldName("type"); typeNode != nil {
				m.Params = append(m.Params, withDimensions(typeOf(typeNode, src, sc), p.ChildByFieldName("dimensions"), src))
			}
		case "spread_parameter":
			if typeNode := firstTypeChild(p); typeNode != nil {
				m.Params = append(m.Params, descriptor.ArrayType(typeOf(typeNode, src, sc)))
			}
		}
	}
	return m, nil
}

// typeParameters declares every variable before reading bounds so bounds may refer to
// each other, as in <T extends Comparable<T>>.
func typeParameters(node *sitter.Node, src []byte, sc *scope) ([]descriptor.TypeVar, *scope, error) {
	var params []*sitter.Node
	var vars []descriptor.TypeVar
	for i := 0; i < int(node.NamedChildCount()); i++ {
		p := node.NamedChild(i)
		if p.Type() != "type_parameter" {
			continue
		}
		nameNode := childOfType(p, "type_identifier")
		if nameNode == nil {
			nameNode = childOfType(p, "identifier")
		}
		if nameNode == nil {
			return nil, sc, fmt.Errorf("line %d: type parameter without a name", p.StartPoint().Row+1)
		}
		params = append(params, p)
		vars = append(vars, descriptor.TypeVar{Name: nameNode.Content(src)})
	}

	inner := sc.with(vars)
	for i, p := range params {
		bound := childOfType(p, "type_bound")
		if bound == nil {
			continue
		}
		for k := 0; k < int(bound.NamedChildCount()); k++ {
			if t := typeOf(bound.NamedChild(k), src, inner); t != nil {
				vars[i].Bounds = append(vars[i].Bounds, t)
			}
		}
	}
	return vars, inner, nil
}

func typeList(node *sitter.Node, src []byte, sc *scope) []descriptor.Type {
	if node == nil {
		return nil
	}
	if list := childOfType(node, "type_list"); list != nil {
		node = list
	}
	var out []descriptor.Type
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if t := typeOf(node.NamedChild(i), src, sc); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// typeOf converts a type node. void converts to nil.
func typeOf(node *sitter.Node, src []byte, sc *scope) descriptor.Type {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "type_identifier", "identifier":
		name := node.Content(src)
		if sc.has(name) {
			return descriptor.Var(name)
		}
		return descriptor.Named(descriptor.TypeID(name))
	case "scoped_type_identifier":
		return descriptor.Named(descriptor.TypeID(scopedName(node, src)))
	case "generic_type":
		var base string
		var args []descriptor.Type
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "type_identifier":
				base = child.Content(src)
			case "scoped_type_identifier":
				base = scopedName(child, src)
			case "type_arguments":
				for k := 0; k < int(child.NamedChildCount()); k++ {
					if t := typeOf(child.NamedChild(k), src, sc); t != nil {
						args = append(args, t)
					}
				}
			}
		}
		if len(args) == 0 {
			return descriptor.Named(descriptor.TypeID(base))
		}
		return descriptor.Param(descriptor.TypeID(base), args...)
	case "array_type":
		return withDimensions(typeOf(node.ChildByFieldName("element"), src, sc), node.ChildByFieldName("dimensions"), src)
	case "wildcard":
		return wildcard(node, src, sc)
	case "annotated_type":
		return typeOf(node.NamedChild(int(node.NamedChildCount())-1), src, sc)
	case "integral_type", "floating_point_type", "boolean_type":
		return descriptor.Named(descriptor.TypeID(node.Content(src)))
	case "void_type":
		return nil
	default:
		return descriptor.Named(descriptor.TypeID(strings.Join(strings.Fields(node.Content(src)), "")))
	}
}

func wildcard(node *sitter.Node, src []byte, sc *scope) descriptor.Type {
	lower := false
	var bound *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "super":
			lower = true
		case "extends", "?", "annotation", "marker_annotation":
		default:
			if child.IsNamed() {
				bound = child
			}
		}
	}
	t := typeOf(bound, src, sc)
	switch {
	case t == nil:
		return descriptor.Unbounded()
	case lower:
		return descriptor.Super(t)
	default:
		return descriptor.Extends(t)
	}
}

// scopedName flattens Outer.Inner, dropping any arguments given to the outer part.
func scopedName(node *sitter.Node, src []byte) string {
	var parts []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "type_identifier", "identifier":
			parts = append(parts, child.Content(src))
		case "scoped_type_identifier":
			parts = append(parts, scopedName(child, src))
		case "generic_type":
			if base := child.NamedChild(0); base != nil {
				if base.Type() == "scoped_type_identifier" {
					parts = append(parts, scopedName(base, src))
				} else {
					parts = append(parts, base.Content(src))
				}
			}
		}
	}
	return strings.Join(parts, ".")
}

func withDimensions(t descriptor.Type, dims *sitter.Node, src []byte) descriptor.Type {
	if t == nil || dims == nil {
		return t
	}
	for n := strings.Count(dims.Content(src), "["); n > 0; n-- {
		t = descriptor.ArrayType(t)
	}
	return t
}

func hasModifier(node *sitter.Node, src []byte, modifier string) bool {
	mods := childOfType(node, "modifiers")
	if mods == nil {
		return false
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		if mods.Child(i).Content(src) == modifier {
			return true
		}
	}
	return false
}

func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func firstTypeChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		switch child := node.NamedChild(i); child.Type() {
		case "modifiers", "variable_declarator", "annotation", "marker_annotation":
		default:
			return child
		}
	}
	return nil
}
