package compare

import (
	"genres/internal/descriptor"
	"genres/internal/resolver"
)

// Lattice answers the subtype questions the comparator needs.
type Lattice interface {
	Lookup(id descriptor.TypeID) (*descriptor.TypeDecl, bool)
	IsAssignable(from, to descriptor.TypeID) bool
}

// Projector is implemented by lattices that can view a descriptor as a parameterization
// of one of its ancestors. Without it, arguments of different bases are not compared.
type Projector interface {
	Project(t descriptor.Type, ancestor descriptor.TypeID) (descriptor.Type, error)
}

// NominalLattice knows no declarations: a type is only assignable to itself and Object.
type NominalLattice struct{}

func (NominalLattice) Lookup(descriptor.TypeID) (*descriptor.TypeDecl, bool) {
	return nil, false
}

func (NominalLattice) IsAssignable(from, to descriptor.TypeID) bool {
	return resolver.IsAssignable(nil, from, to)
}

// Result classifies a pair of descriptors. Specificity is not assignability: List is
// assignable to List<? extends String> but the latter is more specific, and
// T<String, String> is more specific than T<String, Object>.
type Result struct {
	Compatible   bool
	Equal        bool
	MoreSpecific bool
}

func (r Result) IsCompatible() bool {
	return r.Compatible
}

func (r Result) IsEqual() bool {
	return r.Equal
}

// IsMoreSpecific reports whether left carries strictly more type information than right.
// Equal descriptors are never more specific than each other.
func (r Result) IsMoreSpecific() bool {
	return r.MoreSpecific && !r.Equal
}

// Compare walks left and right in lock step. A nil lattice compares nominally.
func Compare(left, right descriptor.Type, lattice Lattice) Result {
	if lattice == nil {
		lattice = NominalLattice{}
	}
	v := &visitor{lattice: lattice, compatible: true, moreSpecific: true, equal: true}
	w := &walker{lattice: lattice, visitor: v, expanding: make(map[descriptor.TypeID]bool)}
	w.walk(left, right)
	return Result{Compatible: v.compatible, Equal: v.equal, MoreSpecific: v.moreSpecific}
}

// IsMoreSpecific is shorthand for Compare(left, right, lattice).IsMoreSpecific().
func IsMoreSpecific(left, right descriptor.Type, lattice Lattice) bool {
	return Compare(left, right, lattice).IsMoreSpecific()
}

// IsCompatible is shorthand for Compare(left, right, lattice).IsCompatible().
func IsCompatible(left, right descriptor.Type, lattice Lattice) bool {
	return Compare(left, right, lattice).IsCompatible()
}

type visitor struct {
	lattice      Lattice
	compatible   bool
	moreSpecific bool
	// equality has to be tracked over all layers since any layer may be the last one
	equal bool
}

// next accounts one layer. Both sides are already cleaned by the walker.
func (v *visitor) next(one, two descriptor.Type) {
	if descriptor.IsObject(two) {
		// Object on the right is the least specific bound; Object on both sides is equal
		v.moreSpecific = v.moreSpecific && !descriptor.IsObject(one)
		v.equal = v.equal && descriptor.IsObject(one)
		return
	}

	oneBounds := upperBounds(one)
	twoBounds := upperBounds(two)
	boundsEqual := equalIDs(oneBounds, twoBounds)
	if !boundsEqual {
		v.moreSpecific = v.moreSpecific && oneBounds[0] != descriptor.Object &&
			assignableBounds(v.lattice, oneBounds, twoBounds)
	}
	v.moreSpecific = v.moreSpecific && v.compareLowerBounds(one, two)
	v.equal = v.equal && boundsEqual
}

func (v *visitor) incompatible() {
	v.compatible = false
	v.equal = false
	v.moreSpecific = false
}

// compareLowerBounds decides specificity for layers with equal upper bounds.
// A lower bound further up the hierarchy is the tighter constraint, so the comparison of
// two lower bounds is inverted: ? super Number is more specific than ? super Integer.
func (v *visitor) compareLowerBounds(one, two descriptor.Type) bool {
	oneLower := descriptor.LowerBounds(one)
	twoLower := descriptor.LowerBounds(two)

	switch {
	case len(twoLower) == 0:
		v.equal = v.equal && (len(oneLower) == 0 || descriptor.IsObject(oneLower[0]))
		return true
	case len(oneLower) == 0:
		// Object and ? super String share the upper bound, the wildcard says more
		v.equal = v.equal && descriptor.IsObject(twoLower[0])
		return !descriptor.IsObject(one)
	default:
		v.equal = v.equal && descriptor.Equal(oneLower[0], twoLower[0])
		return !v.equal && Compare(twoLower[0], oneLower[0], v.lattice).IsMoreSpecific()
	}
}

// upperBounds erases a cleaned descriptor to the types it is assignable to. Variables
// carry no bindings here and count as Object.
func upperBounds(t descriptor.Type) []descriptor.TypeID {
	switch typ := t.(type) {
	case descriptor.Wildcard:
		upper := typ.UpperOf()
		out := make([]descriptor.TypeID, len(upper))
		for i, u := range upper {
			out[i] = resolver.EraseLoose(u, descriptor.Bindings{})
		}
		return out
	case descriptor.Array:
		elems := upperBounds(typ.Elem)
		out := make([]descriptor.TypeID, len(elems))
		for i, e := range elems {
			out[i] = descriptor.ArrayOf(e)
		}
		return out
	default:
		return []descriptor.TypeID{resolver.EraseLoose(t, descriptor.Bindings{})}
	}
}

func assignableBounds(lattice Lattice, one, two []descriptor.TypeID) bool {
	for _, target := range two {
		ok := false
		for _, src := range one {
			if lattice.IsAssignable(src, target) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func equalIDs(a, b []descriptor.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
