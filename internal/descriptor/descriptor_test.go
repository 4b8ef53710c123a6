package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"concrete", Named("String"), "String"},
		{"parameterized", Param("Map", Named("String"), Var("V")), "Map<String, V>"},
		{"array", ArrayType(Param("List", Named("Integer"))), "List<Integer>[]"},
		{"unbounded wildcard", Unbounded(), "?"},
		{"object upper wildcard", Extends(Named(Object)), "?"},
		{"upper wildcard", Extends(Named("Number")), "? extends Number"},
		{"lower wildcard", Super(Named("Integer")), "? super Integer"},
		{"intersection", Extends(Named("Number"), Named("Comparable")), "? extends Number & Comparable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Param("List", Var("T")), Param("List", Var("T"))))
	assert.False(t, Equal(Param("List", Var("T")), Param("List", Var("E"))))
	assert.False(t, Equal(Named("List"), Param("List", Var("E"))))
	assert.True(t, Equal(Unbounded(), Extends(Named(Object))), "? and ? extends Object describe the same wildcard")
	assert.False(t, Equal(Super(Named("Integer")), Extends(Named("Integer"))))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(Named("A"), nil))
}

func TestTypeIDArrays(t *testing.T) {
	id := ArrayOf(ArrayOf("Integer"))
	assert.Equal(t, TypeID("Integer[][]"), id)
	assert.True(t, id.IsArray())
	assert.Equal(t, TypeID("Integer[]"), id.Elem())
	assert.False(t, id.Elem().Elem().IsArray())
}

func TestFreeVariables(t *testing.T) {
	typ := Param("Map", Var("K"), Param("List", Extends(Var("V"))), ArrayType(Var("K")))
	assert.Equal(t, []string{"K", "V"}, FreeVariables(typ))
	assert.Empty(t, FreeVariables(Named("String")))
}

func TestBindings(t *testing.T) {
	outer := NewBindings([]string{"T", "K"}, []Type{Named("String"), Named("Integer")})
	own := NewBindings([]string{"E", "T"}, []Type{Named("Long"), Named("Double")})

	t.Run("merge keeps outer order and own values", func(t *testing.T) {
		merged := outer.Merge(own)
		assert.Equal(t, []string{"T", "K", "E"}, merged.Names())
		v, ok := merged.Get("T")
		require.True(t, ok)
		assert.Equal(t, Named("Double"), v)
	})

	t.Run("with does not mutate receiver", func(t *testing.T) {
		next := outer.With("X", Named("Object"))
		assert.Equal(t, 2, outer.Len())
		assert.Equal(t, 3, next.Len())
		assert.False(t, outer.Has("X"))
	})

	t.Run("map is a copy", func(t *testing.T) {
		m := outer.Map()
		m["T"] = Named("Mutated")
		v, _ := outer.Get("T")
		assert.Equal(t, Named("String"), v)
	})

	t.Run("without", func(t *testing.T) {
		assert.Equal(t, []string{"K"}, outer.Without("T").Names())
	})

	t.Run("equal is order sensitive", func(t *testing.T) {
		swapped := NewBindings([]string{"K", "T"}, []Type{Named("Integer"), Named("String")})
		assert.False(t, outer.Equal(swapped))
		assert.True(t, outer.Equal(NewBindings([]string{"T", "K"}, []Type{Named("String"), Named("Integer")})))
	})
}

func TestDeclCodec(t *testing.T) {
	decl := &TypeDecl{
		ID:         "Repo",
		Vars:       []TypeVar{{Name: "T", Bounds: []Type{Named("Number"), Param("Comparable", Var("T"))}}},
		Super:      Param("Base", Var("T"), ArrayType(Var("T"))),
		Interfaces: []Type{Param("Iterable", Extends(Var("T")))},
		Outer:      "Outer",
		Fields:     []FieldDecl{{Name: "items", Type: Param("List", Super(Var("T"))), Owner: "Repo"}},
		Methods: []MethodDecl{{
			Name:   "find",
			Vars:   []TypeVar{{Name: "K"}},
			Params: []Type{Var("K")},
			Return: Var("T"),
			Owner:  "Repo",
		}},
		Source: Source{File: "Repo.java", Line: 3},
	}

	data, err := MarshalDecl(decl)
	require.NoError(t, err)

	back, err := UnmarshalDecl(data)
	require.NoError(t, err)
	assert.Equal(t, decl, back)
}

func TestUnmarshalTypeRejectsUnknownKind(t *testing.T) {
	_, err := UnmarshalType([]byte(`{"kind":"pointer"}`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsNullElements(t *testing.T) {
	for name, data := range map[string]string{
		"args":  `{"kind":"param","id":"List","args":[null]}`,
		"upper": `{"kind":"wildcard","upper":[null]}`,
		"lower": `{"kind":"wildcard","lower":[{"kind":"concrete","id":"A"},null]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalType([]byte(data))
			assert.Error(t, err)
		})
	}

	_, err := UnmarshalDecl([]byte(`{"id":"A","interfaces":[null]}`))
	assert.Error(t, err)
	_, err = UnmarshalDecl([]byte(`{"id":"A","methods":[{"name":"m","params":[null]}]}`))
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	a := RegistryFunc(func(id TypeID) (*TypeDecl, bool) {
		if id == "A" {
			return &TypeDecl{ID: "A"}, true
		}
		return nil, false
	})
	b := RegistryFunc(func(id TypeID) (*TypeDecl, bool) {
		return &TypeDecl{ID: id, Interface: true}, true
	})
	reg := Chain(nil, a, b)

	d, ok := reg.Lookup("A")
	require.True(t, ok)
	assert.False(t, d.Interface)

	d, ok = reg.Lookup("B")
	require.True(t, ok)
	assert.True(t, d.Interface)
}
