package resolver

import (
	"errors"
	"testing"

	"genres/internal/descriptor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	named = descriptor.Named
	param = descriptor.Param
	tvar  = descriptor.Var
)

func bindings(kv ...interface{}) descriptor.Bindings {
	b := descriptor.Bindings{}
	for i := 0; i < len(kv); i += 2 {
		b = b.With(kv[i].(string), kv[i+1].(descriptor.Type))
	}
	return b
}

func TestErase(t *testing.T) {
	b := bindings("T", named("Integer"), "L", param("List", named("String")), "W", descriptor.Extends(named("Number")))

	tests := []struct {
		name string
		typ  descriptor.Type
		want descriptor.TypeID
	}{
		{"concrete", named("String"), "String"},
		{"parameterized", param("Map", tvar("T"), tvar("T")), "Map"},
		{"variable", tvar("T"), "Integer"},
		{"variable bound to parameterized", tvar("L"), "List"},
		{"variable bound to wildcard", tvar("W"), "Number"},
		{"array of variable", descriptor.ArrayType(tvar("T")), "Integer[]"},
		{"upper wildcard", descriptor.Extends(tvar("T")), "Integer"},
		{"lower wildcard", descriptor.Super(tvar("T")), descriptor.Object},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Erase(tt.typ, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEraseUnknownVariable(t *testing.T) {
	_, err := Erase(param("List", tvar("T")), descriptor.Bindings{})
	require.NoError(t, err, "arguments are not inspected by erasure")

	_, err = Erase(tvar("T"), descriptor.Bindings{})
	var unknown *UnknownVariableError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "T", unknown.Name)
	assert.Empty(t, unknown.Type)

	annotated := unknown.WithType("Root")
	assert.Equal(t, "unknown type variable T in context of Root", annotated.Error())
	assert.Empty(t, unknown.Type, "WithType returns a copy")
}

func TestEraseLoose(t *testing.T) {
	assert.Equal(t, descriptor.Object, EraseLoose(tvar("T"), descriptor.Bindings{}))
	assert.Equal(t, descriptor.TypeID("Object[]"), EraseLoose(descriptor.ArrayType(tvar("T")), descriptor.Bindings{}))
	assert.Equal(t, descriptor.TypeID("Integer"), EraseLoose(tvar("T"), bindings("T", named("Integer"))))
}

func TestSubstitute(t *testing.T) {
	b := bindings("T", named("Integer"), "K", param("List", named("String")))

	got, err := Substitute(param("Map", tvar("K"), descriptor.ArrayType(descriptor.Super(tvar("T")))), b)
	require.NoError(t, err)
	want := param("Map", param("List", named("String")), descriptor.ArrayType(descriptor.Super(named("Integer"))))
	assert.True(t, descriptor.Equal(want, got), "got %s", got)

	t.Run("idempotent", func(t *testing.T) {
		again, err := Substitute(got, b)
		require.NoError(t, err)
		assert.True(t, descriptor.Equal(got, again))
	})

	t.Run("single pass on self reference", func(t *testing.T) {
		self := bindings("T", param("Comparable", tvar("T")))
		out, err := Substitute(tvar("T"), self)
		require.NoError(t, err)
		assert.Equal(t, "Comparable<T>", out.String())
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := Substitute(param("List", tvar("X")), b)
		var unknown *UnknownVariableError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "X", unknown.Name)
	})
}

func TestResolveArgumentsOf(t *testing.T) {
	b := bindings("T", named("Integer"), "P", param("Map", named("String"), named("Long")))

	args, err := ResolveArgumentsOf(param("Map", tvar("T"), param("List", tvar("T"))), b)
	require.NoError(t, err)
	assert.Equal(t, []descriptor.TypeID{"Integer", "List"}, args)

	args, err = ResolveArgumentsOf(tvar("P"), b)
	require.NoError(t, err)
	assert.Equal(t, []descriptor.TypeID{"String", "Long"}, args)

	args, err = ResolveArgumentsOf(named("String"), b)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestDefaultBindings(t *testing.T) {
	t.Run("no bound", func(t *testing.T) {
		b, err := DefaultBindings([]descriptor.TypeVar{{Name: "T"}}, descriptor.Bindings{})
		require.NoError(t, err)
		v, _ := b.Get("T")
		assert.Equal(t, named(descriptor.Object), v)
	})

	t.Run("self referencing bound", func(t *testing.T) {
		vars := []descriptor.TypeVar{{Name: "T", Bounds: []descriptor.Type{param("Comparable", tvar("T"))}}}
		b, err := DefaultBindings(vars, descriptor.Bindings{})
		require.NoError(t, err)
		v, _ := b.Get("T")
		assert.Equal(t, "Comparable<Comparable>", v.String())
	})

	t.Run("forward reference", func(t *testing.T) {
		vars := []descriptor.TypeVar{
			{Name: "A", Bounds: []descriptor.Type{tvar("B")}},
			{Name: "B", Bounds: []descriptor.Type{named("String")}},
		}
		b, err := DefaultBindings(vars, descriptor.Bindings{})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, b.Names())
		a, _ := b.Get("A")
		assert.Equal(t, named("String"), a)
	})

	t.Run("intersection becomes wildcard", func(t *testing.T) {
		vars := []descriptor.TypeVar{{Name: "T", Bounds: []descriptor.Type{named("Number"), param("Comparable", tvar("T"))}}}
		b, err := DefaultBindings(vars, descriptor.Bindings{})
		require.NoError(t, err)
		v, _ := b.Get("T")
		w, ok := v.(descriptor.Wildcard)
		require.True(t, ok)
		assert.Equal(t, "? extends Number & Comparable<Number>", w.String())
	})

	t.Run("outer variables", func(t *testing.T) {
		vars := []descriptor.TypeVar{{Name: "E", Bounds: []descriptor.Type{param("List", tvar("T"))}}}
		b, err := DefaultBindings(vars, bindings("T", named("Integer")))
		require.NoError(t, err)
		assert.Equal(t, []string{"E"}, b.Names(), "known variables are not copied")
		v, _ := b.Get("E")
		assert.Equal(t, "List<Integer>", v.String())
	})

	t.Run("unknown outer variable", func(t *testing.T) {
		vars := []descriptor.TypeVar{{Name: "E", Bounds: []descriptor.Type{tvar("Z")}}}
		_, err := DefaultBindings(vars, descriptor.Bindings{})
		var unknown *UnknownVariableError
		assert.True(t, errors.As(err, &unknown))
	})
}
