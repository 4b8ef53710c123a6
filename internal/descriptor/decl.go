package descriptor

// TypeVar is a declared type variable. Several bounds form an intersection.
type TypeVar struct {
	Name   string
	Bounds []Type
}

// Source points at the declaration site, for diagnostics only.
type Source struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	EndLine int    `json:"end_line,omitempty"`
}

// Contains reports whether line falls inside the declaration. Sources without an end
// line contain nothing.
func (s Source) Contains(line int) bool {
	return s.Line > 0 && line >= s.Line && line <= s.EndLine
}

// FieldDecl is a field as declared by Owner.
type FieldDecl struct {
	Name  string
	Type  Type
	Owner TypeID
}

// MethodDecl is a method (or constructor) as declared by Owner, with its own type variables.
type MethodDecl struct {
	Name   string
	Vars   []TypeVar
	Params []Type
	Return Type
	Owner  TypeID
}

// TypeDecl is the pre-extracted declaration of a nominal type.
type TypeDecl struct {
	ID         TypeID
	Vars       []TypeVar
	Super      Type
	Interfaces []Type
	// Outer is the lexically enclosing type, empty for top-level types.
	Outer     TypeID
	Static    bool
	Interface bool
	Fields    []FieldDecl
	Methods   []MethodDecl
	Source    Source
}

// Arity is the number of declared type variables.
func (d *TypeDecl) Arity() int {
	if d == nil {
		return 0
	}
	return len(d.Vars)
}

// VarNames lists declared variable names in order.
func (d *TypeDecl) VarNames() []string {
	return varNames(d.Vars)
}

// Parents returns the declared supertype followed by the interfaces.
func (d *TypeDecl) Parents() []Type {
	var out []Type
	if d.Super != nil {
		out = append(out, d.Super)
	}
	return append(out, d.Interfaces...)
}

// CapturesOuter reports whether the type is an inner (non-static) type of another type.
func (d *TypeDecl) CapturesOuter() bool {
	return d.Outer != "" && !d.Static
}

// Field finds a declared field by name.
func (d *TypeDecl) Field(name string) (FieldDecl, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// Method finds the first declared method with the given name.
func (d *TypeDecl) Method(name string) (MethodDecl, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodDecl{}, false
}

// VarNames lists the method's own variable names in order.
func (m MethodDecl) VarNames() []string {
	return varNames(m.Vars)
}

func varNames(vars []TypeVar) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

// Registry provides declarations for nominal types.
type Registry interface {
	Lookup(id TypeID) (*TypeDecl, bool)
}

// RegistryFunc adapts a function to Registry.
type RegistryFunc func(id TypeID) (*TypeDecl, bool)

func (f RegistryFunc) Lookup(id TypeID) (*TypeDecl, bool) {
	return f(id)
}

// Chain consults registries in order and returns the first declaration found.
func Chain(regs ...Registry) Registry {
	return RegistryFunc(func(id TypeID) (*TypeDecl, bool) {
		for _, r := range regs {
			if r == nil {
				continue
			}
			if d, ok := r.Lookup(id); ok {
				return d, true
			}
		}
		return nil, false
	})
}
