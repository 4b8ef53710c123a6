package graph

import "genres/internal/descriptor"

var (
	named = descriptor.Named
	param = descriptor.Param
	tvar  = descriptor.Var
)

func vars(names ...string) []descriptor.TypeVar {
	out := make([]descriptor.TypeVar, len(names))
	for i, n := range names {
		out[i] = descriptor.TypeVar{Name: n}
	}
	return out
}

func ifaces(ts ...descriptor.Type) []descriptor.Type {
	return ts
}

// CoreTypes returns declarations for the platform types sources refer to without
// declaring them. They use simple names as ids.
func CoreTypes() []*descriptor.TypeDecl {
	comparableOf := func(id descriptor.TypeID) descriptor.Type {
		return param("Comparable", named(id))
	}
	number := func(id descriptor.TypeID) *descriptor.TypeDecl {
		return &descriptor.TypeDecl{ID: id, Super: named("Number"), Interfaces: ifaces(comparableOf(id))}
	}
	return []*descriptor.TypeDecl{
		{ID: descriptor.Object},
		{ID: "CharSequence", Interface: true},
		{ID: "Comparable", Interface: true, Vars: vars("T")},
		{ID: "Iterable", Interface: true, Vars: vars("T")},
		{ID: "String", Interfaces: ifaces(named("CharSequence"), comparableOf("String"))},
		{ID: "Boolean", Interfaces: ifaces(comparableOf("Boolean"))},
		{ID: "Character", Interfaces: ifaces(comparableOf("Character"))},
		{ID: "Number"},
		number("Byte"),
		number("Short"),
		number("Integer"),
		number("Long"),
		number("Float"),
		number("Double"),
		{ID: "Void"},
		{ID: "Class", Vars: vars("T")},
		{
			ID:         "Enum",
			Vars:       []descriptor.TypeVar{{Name: "E", Bounds: ifaces(param("Enum", tvar("E")))}},
			Interfaces: ifaces(param("Comparable", tvar("E"))),
		},
		{ID: "Optional", Vars: vars("T")},

		{ID: "Collection", Interface: true, Vars: vars("E"), Interfaces: ifaces(param("Iterable", tvar("E")))},
		{ID: "List", Interface: true, Vars: vars("E"), Interfaces: ifaces(param("Collection", tvar("E")))},
		{ID: "Set", Interface: true, Vars: vars("E"), Interfaces: ifaces(param("Collection", tvar("E")))},
		{ID: "Queue", Interface: true, Vars: vars("E"), Interfaces: ifaces(param("Collection", tvar("E")))},
		{ID: "Deque", Interface: true, Vars: vars("E"), Interfaces: ifaces(param("Queue", tvar("E")))},
		{ID: "ArrayList", Vars: vars("E"), Interfaces: ifaces(param("List", tvar("E")))},
		{ID: "LinkedList", Vars: vars("E"), Interfaces: ifaces(param("List", tvar("E")), param("Deque", tvar("E")))},
		{ID: "HashSet", Vars: vars("E"), Interfaces: ifaces(param("Set", tvar("E")))},

		{ID: "Map", Interface: true, Vars: vars("K", "V")},
		{ID: "SortedMap", Interface: true, Vars: vars("K", "V"), Interfaces: ifaces(param("Map", tvar("K"), tvar("V")))},
		{ID: "HashMap", Vars: vars("K", "V"), Interfaces: ifaces(param("Map", tvar("K"), tvar("V")))},
		{ID: "TreeMap", Vars: vars("K", "V"), Interfaces: ifaces(param("SortedMap", tvar("K"), tvar("V")))},

		{ID: "Supplier", Interface: true, Vars: vars("T")},
		{ID: "Function", Interface: true, Vars: vars("T", "R")},
		{ID: "Comparator", Interface: true, Vars: vars("T")},
	}
}

// WithCoreTypes adds CoreTypes to g.
func (g *Graph) WithCoreTypes() *Graph {
	for _, d := range CoreTypes() {
		g.AddDecl(d)
	}
	return g
}
