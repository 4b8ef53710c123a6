package hierarchy

import (
	"errors"

	"genres/internal/descriptor"
	"genres/internal/resolver"
)

// Build computes the closure of root in root mode: the root's own variables have no
// external binding and degrade to their declared bounds.
func Build(reg descriptor.Registry, root descriptor.TypeID, ignored ...descriptor.TypeID) (*Closure, error) {
	return build(reg, root, descriptor.Bindings{}, nil, ignored)
}

// BuildInlying computes an independent closure for a member type known inside another
// closure. d must already be substituted with the enclosing bindings. When as is not
// empty it names a more specific implementation of erase(d) that becomes the root; its
// variables are tracked back from the arguments of d where possible and default to their
// bounds otherwise. known supplies outer-type bindings and the ignored set.
func BuildInlying(reg descriptor.Registry, d descriptor.Type, as descriptor.TypeID, known *Closure) (*Closure, error) {
	var ignored []descriptor.TypeID
	if known != nil {
		ignored = known.Ignored()
	}
	if w, ok := d.(descriptor.Wildcard); ok {
		d = w.UpperOf()[0]
	}

	var target descriptor.TypeID
	var args []descriptor.Type
	switch typ := d.(type) {
	case descriptor.Concrete:
		target = typ.ID
	case descriptor.Parameterized:
		target, args = typ.Base, typ.Args
	case descriptor.Array:
		var root descriptor.TypeID
		if known != nil {
			root = known.Root()
		}
		return nil, NewIllegalHierarchyError(root, resolver.EraseLoose(d, descriptor.Bindings{}), "arrays have no type hierarchy")
	default:
		return nil, resolver.NewUnknownVariableError(d.String())
	}

	decl, ok := reg.Lookup(target)
	if !ok {
		return nil, NewMalformedDeclarationError(target, "declaration not found")
	}
	if args != nil && len(args) != decl.Arity() {
		return nil, NewMalformedDeclarationError(target, "declares %d type variables but %d arguments were given", decl.Arity(), len(args))
	}
	seed := descriptor.NewBindings(decl.VarNames(), args)

	if as == "" || as == target {
		c, err := build(reg, target, seed, known, ignored)
		if err != nil {
			return nil, err
		}
		c.inlying = true
		return c, nil
	}

	if !resolver.IsAssignable(reg, as, target) {
		return nil, NewIllegalHierarchyError(as, target, "implementation type does not extend the declared type")
	}
	tracked, err := track(reg, as, target, seed, known, ignored)
	if err != nil {
		return nil, err
	}
	c, err := build(reg, as, tracked, known, ignored)
	if err != nil {
		return nil, err
	}
	c.inlying = true
	return c, nil
}

// build runs the traversal. seed holds externally known bindings of the root's own
// variables (possibly partial); known provides outer-type bindings.
func build(reg descriptor.Registry, root descriptor.TypeID, seed descriptor.Bindings, known *Closure, ignored []descriptor.TypeID) (*Closure, error) {
	decl, ok := reg.Lookup(root)
	if !ok {
		return nil, NewMalformedDeclarationError(root, "declaration not found")
	}

	c := newClosure(reg, root, ignored)
	b := &builder{c: c, reg: reg, known: known}

	outer, err := b.outerScope(decl)
	if err != nil {
		return nil, err
	}
	own, err := seededBindings(decl, seed, outer)
	if err != nil {
		return nil, annotate(err, root)
	}
	rootBindings := outer.Merge(own)
	c.put(root, rootBindings, 0)

	if err := b.walk(decl, rootBindings); err != nil {
		return nil, err
	}
	return c, nil
}

// seededBindings binds the declared variables in order, taking seeded values first and
// defaulting the rest to their bounds.
func seededBindings(decl *descriptor.TypeDecl, seed descriptor.Bindings, outer descriptor.Bindings) (descriptor.Bindings, error) {
	var open []descriptor.TypeVar
	known := outer
	for _, v := range decl.Vars {
		if t, ok := seed.Get(v.Name); ok {
			known = known.With(v.Name, t)
		} else {
			open = append(open, v)
		}
	}
	defaults, err := resolver.DefaultBindings(open, known)
	if err != nil {
		return descriptor.Bindings{}, err
	}

	own := descriptor.Bindings{}
	for _, v := range decl.Vars {
		if t, ok := seed.Get(v.Name); ok {
			own = own.With(v.Name, t)
			continue
		}
		t, _ := defaults.Get(v.Name)
		own = own.With(v.Name, t)
	}
	return own, nil
}

type builder struct {
	c     *Closure
	reg   descriptor.Registry
	known *Closure
}

type pending struct {
	declared descriptor.Type
	bindings descriptor.Bindings
	via      descriptor.TypeID
	depth    int
}

// walk visits ancestors breadth first: supertype before interfaces, interfaces in
// declaration order. The first binding found for a type is the one closest to the root
// and stays canonical; later paths with different substitutions are recorded as conflicts.
func (b *builder) walk(root *descriptor.TypeDecl, rootBindings descriptor.Bindings) error {
	var queue []pending
	for _, p := range root.Parents() {
		queue = append(queue, pending{declared: p, bindings: rootBindings, via: root.ID, depth: 1})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		target, args, err := nominal(cur.declared, cur.via)
		if err != nil {
			return err
		}
		if target == descriptor.Object || b.c.IsIgnored(target) || target == b.c.root {
			continue
		}
		decl, ok := b.reg.Lookup(target)
		if !ok {
			if !b.c.isMissing(target) {
				b.c.missing = append(b.c.missing, target)
			}
			continue
		}

		bindings, err := b.bindingsOf(decl, args, cur)
		if err != nil {
			return err
		}

		if existing, seen := b.c.types[target]; seen {
			if !existing.Equal(bindings) {
				b.c.conflicts = append(b.c.conflicts, Conflict{Type: target, Kept: existing, Dropped: bindings, Via: cur.via})
			}
			continue
		}
		b.c.put(target, bindings, cur.depth)

		for _, p := range decl.Parents() {
			queue = append(queue, pending{declared: p, bindings: bindings, via: target, depth: cur.depth + 1})
		}
	}
	return nil
}

// bindingsOf substitutes the arguments written in the subtype's declaration.
func (b *builder) bindingsOf(decl *descriptor.TypeDecl, args []descriptor.Type, from pending) (descriptor.Bindings, error) {
	outer, err := b.outerScope(decl)
	if err != nil {
		return descriptor.Bindings{}, err
	}

	if args == nil {
		// raw use of a generic supertype
		own, err := resolver.DefaultBindings(decl.Vars, outer)
		if err != nil {
			return descriptor.Bindings{}, annotate(err, decl.ID)
		}
		return outer.Merge(own), nil
	}
	if len(args) != decl.Arity() {
		return descriptor.Bindings{}, NewMalformedDeclarationError(from.via,
			"supertype %s declares %d type variables but is referenced with %d arguments", decl.ID, decl.Arity(), len(args))
	}

	values := make([]descriptor.Type, len(args))
	for i, a := range args {
		v, err := resolver.Substitute(a, from.bindings)
		if err != nil {
			return descriptor.Bindings{}, annotate(err, from.via)
		}
		values[i] = v
	}
	return outer.Merge(descriptor.NewBindings(decl.VarNames(), values)), nil
}

// outerScope returns the bindings an inner type sees from its enclosing types: from the
// closure under construction when the outer type is an ancestor, from the known context
// otherwise, and defaulted to bounds when neither provides them.
func (b *builder) outerScope(decl *descriptor.TypeDecl) (descriptor.Bindings, error) {
	if !decl.CapturesOuter() {
		return descriptor.Bindings{}, nil
	}
	if ob, ok := b.c.types[decl.Outer]; ok {
		return ob, nil
	}
	if b.known != nil {
		if ob, ok := b.known.Bindings(decl.Outer); ok {
			return ob, nil
		}
	}
	outerDecl, ok := b.reg.Lookup(decl.Outer)
	if !ok {
		return descriptor.Bindings{}, nil
	}
	enclosing, err := b.outerScope(outerDecl)
	if err != nil {
		return descriptor.Bindings{}, err
	}
	own, err := resolver.DefaultBindings(outerDecl.Vars, enclosing)
	if err != nil {
		return descriptor.Bindings{}, annotate(err, outerDecl.ID)
	}
	return enclosing.Merge(own), nil
}

// nominal splits a declared supertype into its base and arguments (nil for raw use).
func nominal(t descriptor.Type, via descriptor.TypeID) (descriptor.TypeID, []descriptor.Type, error) {
	switch typ := t.(type) {
	case descriptor.Concrete:
		return typ.ID, nil, nil
	case descriptor.Parameterized:
		return typ.Base, typ.Args, nil
	default:
		return "", nil, NewMalformedDeclarationError(via, "supertype %s is not a nominal type", t)
	}
}

func annotate(err error, id descriptor.TypeID) error {
	var unknown *resolver.UnknownVariableError
	if errors.As(err, &unknown) {
		return unknown.WithType(id)
	}
	return err
}
