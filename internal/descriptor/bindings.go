package descriptor

// Bindings is an immutable, ordered mapping from variable name to descriptor,
// scoped to one declaring type or method.
type Bindings struct {
	names  []string
	values map[string]Type
}

// NewBindings pairs names with values positionally. Extra values are ignored.
func NewBindings(names []string, values []Type) Bindings {
	b := Bindings{values: make(map[string]Type, len(names))}
	for i, n := range names {
		if i >= len(values) {
			break
		}
		b = b.set(n, values[i])
	}
	return b
}

func (b Bindings) set(name string, t Type) Bindings {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = t
	return b
}

func (b Bindings) clone() Bindings {
	out := Bindings{
		names:  append([]string(nil), b.names...),
		values: make(map[string]Type, len(b.values)+1),
	}
	for k, v := range b.values {
		out.values[k] = v
	}
	return out
}

// With returns a copy of b with name bound to t. An existing name keeps its position.
func (b Bindings) With(name string, t Type) Bindings {
	return b.clone().set(name, t)
}

// Merge layers own on top of b: names of b come first, own wins on collision.
func (b Bindings) Merge(own Bindings) Bindings {
	out := b.clone()
	for _, n := range own.names {
		out = out.set(n, own.values[n])
	}
	return out
}

// Without returns a copy of b without the given names.
func (b Bindings) Without(names ...string) Bindings {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := Bindings{values: make(map[string]Type, len(b.values))}
	for _, n := range b.names {
		if !drop[n] {
			out = out.set(n, b.values[n])
		}
	}
	return out
}

func (b Bindings) Get(name string) (Type, bool) {
	t, ok := b.values[name]
	return t, ok
}

func (b Bindings) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

func (b Bindings) Len() int {
	return len(b.names)
}

// Names returns the bound names in declaration order.
func (b Bindings) Names() []string {
	return append([]string(nil), b.names...)
}

// Values returns the bound descriptors in declaration order.
func (b Bindings) Values() []Type {
	out := make([]Type, len(b.names))
	for i, n := range b.names {
		out[i] = b.values[n]
	}
	return out
}

// Map returns a copy of the bindings as a plain map.
func (b Bindings) Map() map[string]Type {
	out := make(map[string]Type, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Equal compares names, order and descriptors.
func (b Bindings) Equal(o Bindings) bool {
	if len(b.names) != len(o.names) {
		return false
	}
	for i, n := range b.names {
		if o.names[i] != n || !Equal(b.values[n], o.values[n]) {
			return false
		}
	}
	return true
}

func (b Bindings) String() string {
	s := "{"
	for i, n := range b.names {
		if i > 0 {
			s += ", "
		}
		s += n + "=" + b.values[n].String()
	}
	return s + "}"
}
