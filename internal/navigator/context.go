package navigator

import (
	"errors"
	"fmt"

	"genres/internal/cache"
	"genres/internal/descriptor"
	"genres/internal/hierarchy"
	"genres/internal/resolver"
)

// Context is an immutable view of a closure from one of its types. Navigation always
// returns a new Context; the closure is shared and never modified.
type Context struct {
	scope
	closure *hierarchy.Closure
	cache   *cache.Cache
	decl    *descriptor.TypeDecl
	parent  *Context
}

// New returns the context of closure's root.
func New(closure *hierarchy.Closure) *Context {
	ctx, err := at(closure, nil, closure.Root(), nil)
	if err != nil {
		// the root is always a member of its closure
		panic(err)
	}
	return ctx
}

// Resolve returns the root context of root, sharing the closure through c. Inlying
// contexts created from it reuse c for types that need no seeded bindings.
func Resolve(c *cache.Cache, root descriptor.TypeID, ignored ...descriptor.TypeID) (*Context, error) {
	closure, err := c.Get(root, ignored...)
	if err != nil {
		return nil, err
	}
	return at(closure, c, root, nil)
}

func at(closure *hierarchy.Closure, c *cache.Cache, id descriptor.TypeID, parent *Context) (*Context, error) {
	b, err := closure.Require(id)
	if err != nil {
		return nil, err
	}
	decl, _ := closure.Decl(id)
	return &Context{
		scope:   scope{current: id, bindings: b},
		closure: closure,
		cache:   c,
		decl:    decl,
		parent:  parent,
	}, nil
}

func (c *Context) Closure() *hierarchy.Closure {
	return c.closure
}

// Decl is the declaration of the current type.
func (c *Context) Decl() *descriptor.TypeDecl {
	return c.decl
}

// Parent is the context an inlying context was derived from, nil otherwise. It is kept
// for diagnostics only; the inlying closure is independent of it.
func (c *Context) Parent() *Context {
	return c.parent
}

// Type switches the view to id, which must be the root or one of its ancestors.
func (c *Context) Type(id descriptor.TypeID) (*Context, error) {
	if id == c.current {
		return c, nil
	}
	return at(c.closure, c.cache, id, c.parent)
}

// GenericTypes returns the bindings of the current type's own variables in declaration
// order. Outer type variables are only visible through Bindings.
func (c *Context) GenericTypes() []descriptor.Type {
	out := make([]descriptor.Type, 0, c.decl.Arity())
	for _, v := range c.decl.Vars {
		t, _ := c.bindings.Get(v.Name)
		out = append(out, t)
	}
	return out
}

// Generics returns the erasures of GenericTypes: A extends B<Object, C<Long>> gives
// [Object, C] for B.
func (c *Context) Generics() ([]descriptor.TypeID, error) {
	return c.classes(c.GenericTypes())
}

// GenericsAsString renders GenericTypes fully resolved: A extends B<Object, C<Long>>
// gives ["Object", "C<Long>"] for B.
func (c *Context) GenericsAsString() ([]string, error) {
	return c.toStrings(c.GenericTypes())
}

// GenericType returns the binding of a variable visible in the current type.
func (c *Context) GenericType(name string) (descriptor.Type, error) {
	t, ok := c.bindings.Get(name)
	if !ok {
		return nil, &resolver.UnknownVariableError{Name: name, Type: c.current}
	}
	return t, nil
}

func (c *Context) Generic(name string) (descriptor.TypeID, error) {
	t, err := c.GenericType(name)
	if err != nil {
		return "", err
	}
	return c.ResolveClass(t)
}

func (c *Context) GenericAsString(name string) (string, error) {
	t, err := c.GenericType(name)
	if err != nil {
		return "", err
	}
	return c.ToStringType(t)
}

// GenericTypeAt returns the binding of the current type's i-th own variable.
func (c *Context) GenericTypeAt(i int) (descriptor.Type, error) {
	types := c.GenericTypes()
	if i < 0 || i >= len(types) {
		return nil, fmt.Errorf("%s declares %d type variables, no index %d", c.current, len(types), i)
	}
	return types[i], nil
}

func (c *Context) GenericAt(i int) (descriptor.TypeID, error) {
	t, err := c.GenericTypeAt(i)
	if err != nil {
		return "", err
	}
	return c.ResolveClass(t)
}

func (c *Context) GenericAsStringAt(i int) (string, error) {
	t, err := c.GenericTypeAt(i)
	if err != nil {
		return "", err
	}
	return c.ToStringType(t)
}

// ToStringCurrentType renders the current type with its known bindings, e.g. "Base<String>".
func (c *Context) ToStringCurrentType() (string, error) {
	out, err := resolver.FormatWithBindings(c.decl, c.bindings)
	return out, c.wrap(err)
}

// ToStringCurrentDeclaration renders the current type with its variable names, e.g. "Base<T>".
func (c *Context) ToStringCurrentDeclaration() string {
	return resolver.FormatDeclaration(c.decl)
}

// Method switches to the declaring type of m and layers m's own variables on top.
func (c *Context) Method(m descriptor.MethodDecl) (*MethodContext, error) {
	owner, err := c.declaring(m.Owner, "method "+m.Name)
	if err != nil {
		return nil, err
	}
	generics, err := resolver.DefaultBindings(m.Vars, owner.bindings)
	if err != nil {
		return nil, owner.wrap(err)
	}
	return &MethodContext{
		scope:    scope{current: owner.current, bindings: owner.bindings.Merge(generics)},
		owner:    owner,
		method:   m,
		generics: generics,
	}, nil
}

// Field helpers always resolve in the context of the field's declaring type. The same
// variable name means different things at different levels of a hierarchy.

func (c *Context) ResolveFieldClass(f descriptor.FieldDecl) (descriptor.TypeID, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return "", err
	}
	return ctx.ResolveClass(f.Type)
}

func (c *Context) ResolveFieldType(f descriptor.FieldDecl) (descriptor.Type, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return nil, err
	}
	return ctx.ResolveType(f.Type)
}

func (c *Context) ResolveFieldGenerics(f descriptor.FieldDecl) ([]descriptor.TypeID, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return nil, err
	}
	return ctx.ResolveGenericsOf(f.Type)
}

func (c *Context) ResolveFieldGeneric(f descriptor.FieldDecl) (descriptor.TypeID, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return "", err
	}
	return ctx.ResolveGenericOf(f.Type)
}

// FieldType builds the inlying context of a field's declared type.
func (c *Context) FieldType(f descriptor.FieldDecl) (*Context, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return nil, err
	}
	return ctx.InlyingType(f.Type)
}

// FieldTypeAs builds the inlying context of as, an implementation of the field's type.
func (c *Context) FieldTypeAs(f descriptor.FieldDecl, as descriptor.TypeID) (*Context, error) {
	ctx, err := c.declaring(f.Owner, "field "+f.Name)
	if err != nil {
		return nil, err
	}
	return ctx.InlyingTypeAs(f.Type, as)
}

// InlyingType builds an independent closure rooted at the erasure of t, seeded with the
// arguments of t resolved in this context. Ignored types carry over.
func (c *Context) InlyingType(t descriptor.Type) (*Context, error) {
	return c.inlying(c.scope, t, "")
}

// InlyingTypeAs is InlyingType rooted at as, which must extend the erasure of t. Variables
// of as that cannot be traced back to the arguments of t default to their bounds.
func (c *Context) InlyingTypeAs(t descriptor.Type, as descriptor.TypeID) (*Context, error) {
	return c.inlying(c.scope, t, as)
}

func (c *Context) inlying(s scope, t descriptor.Type, as descriptor.TypeID) (*Context, error) {
	target, err := s.ResolveClass(t)
	if err != nil {
		return nil, err
	}
	if target.IsArray() {
		return nil, hierarchy.NewIllegalHierarchyError(c.closure.Root(), target, "arrays have no type hierarchy")
	}
	reg := c.closure.Registry()
	decl, ok := reg.Lookup(target)
	if !ok {
		return nil, hierarchy.NewMalformedDeclarationError(target, "declaration not found")
	}
	root := target
	if as != "" {
		root = as
	}

	var closure *hierarchy.Closure
	if decl.Arity() == 0 && !c.needsOuter(target) && !c.needsOuter(root) {
		if !resolver.IsAssignable(reg, root, target) {
			return nil, hierarchy.NewIllegalHierarchyError(root, target, "implementation type does not extend the declared type")
		}
		closure, err = c.shared(root)
	} else {
		var resolved descriptor.Type
		resolved, err = s.ResolveType(t)
		if err != nil {
			return nil, err
		}
		closure, err = hierarchy.BuildInlying(reg, resolved, as, c.closure)
	}
	if err != nil {
		return nil, err
	}
	return at(closure, c.cache, root, c)
}

// shared returns the root mode closure of id, from the cache when there is one.
func (c *Context) shared(id descriptor.TypeID) (*hierarchy.Closure, error) {
	if c.cache != nil {
		return c.cache.Get(id, c.closure.Ignored()...)
	}
	return hierarchy.Build(c.closure.Registry(), id, c.closure.Ignored()...)
}

// needsOuter reports whether id is an inner type whose outer type is part of this closure.
func (c *Context) needsOuter(id descriptor.TypeID) bool {
	decl, ok := c.closure.Registry().Lookup(id)
	return ok && decl.CapturesOuter() && c.closure.Has(decl.Outer)
}

func (c *Context) declaring(owner descriptor.TypeID, member string) (*Context, error) {
	ctx, err := c.Type(owner)
	if err == nil {
		return ctx, nil
	}
	var illegal *hierarchy.IllegalHierarchyError
	if !errors.As(err, &illegal) {
		return nil, err
	}
	reason := fmt.Sprintf("declaring type of %s", member)
	if illegal.Reason != "" {
		reason += ", " + illegal.Reason
	}
	return nil, hierarchy.NewIllegalHierarchyError(illegal.Root, owner, reason)
}
