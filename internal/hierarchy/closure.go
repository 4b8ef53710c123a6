package hierarchy

import (
	"sort"

	"genres/internal/descriptor"
)

// Conflict records a diamond path whose substitution differed from the canonical one.
// The binding found closest to the root is kept.
type Conflict struct {
	Type    descriptor.TypeID
	Kept    descriptor.Bindings
	Dropped descriptor.Bindings
	// Via is the subtype whose declaration produced the dropped binding.
	Via descriptor.TypeID
}

// Closure maps every type reachable from a root through declared supertypes and
// interfaces to the bindings of its type variables. It is immutable once built.
type Closure struct {
	reg        descriptor.Registry
	root       descriptor.TypeID
	ignored    []descriptor.TypeID
	ignoredSet map[descriptor.TypeID]bool
	types      map[descriptor.TypeID]descriptor.Bindings
	order      []descriptor.TypeID
	depth      map[descriptor.TypeID]int
	conflicts  []Conflict
	missing    []descriptor.TypeID
	inlying    bool
}

func newClosure(reg descriptor.Registry, root descriptor.TypeID, ignored []descriptor.TypeID) *Closure {
	c := &Closure{
		reg:        reg,
		root:       root,
		ignoredSet: make(map[descriptor.TypeID]bool, len(ignored)),
		types:      make(map[descriptor.TypeID]descriptor.Bindings),
		depth:      make(map[descriptor.TypeID]int),
	}
	for _, id := range ignored {
		if !c.ignoredSet[id] {
			c.ignoredSet[id] = true
			c.ignored = append(c.ignored, id)
		}
	}
	sort.Slice(c.ignored, func(i, j int) bool { return c.ignored[i] < c.ignored[j] })
	return c
}

func (c *Closure) put(id descriptor.TypeID, b descriptor.Bindings, depth int) {
	c.types[id] = b
	c.depth[id] = depth
	c.order = append(c.order, id)
}

// Root is the type the closure was built for.
func (c *Closure) Root() descriptor.TypeID {
	return c.root
}

// Ignored returns the excluded types, sorted.
func (c *Closure) Ignored() []descriptor.TypeID {
	return append([]descriptor.TypeID(nil), c.ignored...)
}

func (c *Closure) IsIgnored(id descriptor.TypeID) bool {
	return c.ignoredSet[id]
}

// Has reports whether id is the root or one of its ancestors.
func (c *Closure) Has(id descriptor.TypeID) bool {
	_, ok := c.types[id]
	return ok
}

// Bindings returns the variable bindings of id. Inner types include their outer
// type's variables first.
func (c *Closure) Bindings(id descriptor.TypeID) (descriptor.Bindings, bool) {
	b, ok := c.types[id]
	return b, ok
}

// Types lists the closure members in discovery order, root first.
func (c *Closure) Types() []descriptor.TypeID {
	return append([]descriptor.TypeID(nil), c.order...)
}

// Depth is the number of inheritance edges between the root and id.
func (c *Closure) Depth(id descriptor.TypeID) (int, bool) {
	d, ok := c.depth[id]
	return d, ok
}

// Conflicts lists diamond paths that disagreed with the canonical binding.
func (c *Closure) Conflicts() []Conflict {
	return append([]Conflict(nil), c.conflicts...)
}

// Missing lists referenced ancestors without a declaration; they are not members.
func (c *Closure) Missing() []descriptor.TypeID {
	return append([]descriptor.TypeID(nil), c.missing...)
}

// Inlying reports whether the closure was seeded from another context.
func (c *Closure) Inlying() bool {
	return c.inlying
}

func (c *Closure) Registry() descriptor.Registry {
	return c.reg
}

// Decl returns the declaration of a member type.
func (c *Closure) Decl(id descriptor.TypeID) (*descriptor.TypeDecl, bool) {
	if !c.Has(id) {
		return nil, false
	}
	return c.reg.Lookup(id)
}

// Require returns the bindings of id or an IllegalHierarchyError naming the root.
func (c *Closure) Require(id descriptor.TypeID) (descriptor.Bindings, error) {
	if b, ok := c.types[id]; ok {
		return b, nil
	}
	reason := ""
	switch {
	case c.ignoredSet[id]:
		reason = "type is ignored"
	case c.isMissing(id):
		reason = "declaration is not available"
	}
	return descriptor.Bindings{}, NewIllegalHierarchyError(c.root, id, reason)
}

func (c *Closure) isMissing(id descriptor.TypeID) bool {
	for _, m := range c.missing {
		if m == id {
			return true
		}
	}
	return false
}
