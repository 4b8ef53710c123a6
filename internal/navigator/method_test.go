package navigator

import (
	"errors"
	"testing"

	"genres/internal/descriptor"
	"genres/internal/hierarchy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodContext_Resolution(t *testing.T) {
	reg := testRegistry()
	ctx := resolve(t, reg, "Root")

	t.Run("type variables", func(t *testing.T) {
		m, err := ctx.Method(method(t, reg, "Base", "get"))
		require.NoError(t, err)
		assert.Equal(t, descriptor.TypeID("Base"), m.CurrentType())

		ret, err := m.ResolveReturnClass()
		require.NoError(t, err)
		assert.Equal(t, descriptor.TypeID("Integer"), ret)

		s, err := m.ToStringMethod()
		require.NoError(t, err)
		assert.Equal(t, "Integer get()", s)
	})

	t.Run("method variables default to bounds", func(t *testing.T) {
		m, err := ctx.Method(method(t, reg, "Base", "convert"))
		require.NoError(t, err)

		k, ok := m.MethodGenerics().Get("K")
		require.True(t, ok)
		assert.Equal(t, named(descriptor.Object), k)

		params, err := m.ResolveParameters()
		require.NoError(t, err)
		assert.Equal(t, []descriptor.TypeID{"Integer", descriptor.Object}, params)

		s, err := m.ToStringMethod()
		require.NoError(t, err)
		assert.Equal(t, "Object convert(Integer, Object)", s)
	})

	t.Run("method variables shadow type variables", func(t *testing.T) {
		m, err := ctx.Method(method(t, reg, "Base", "shadow"))
		require.NoError(t, err)

		types, err := m.ResolveParametersTypes()
		require.NoError(t, err)
		assert.Equal(t, []descriptor.Type{named("Number")}, types)

		ret, err := m.ResolveReturnType()
		require.NoError(t, err)
		assert.Equal(t, "List<Number>", ret.String())

		generics, err := m.ResolveReturnTypeGenerics()
		require.NoError(t, err)
		assert.Equal(t, []descriptor.TypeID{"Number"}, generics)

		// the type context is unaffected
		base, err := m.Type("Base")
		require.NoError(t, err)
		id, err := base.Generic("T")
		require.NoError(t, err)
		assert.Equal(t, descriptor.TypeID("Integer"), id)
	})

	t.Run("void methods", func(t *testing.T) {
		m, err := ctx.Method(method(t, reg, "Base", "put"))
		require.NoError(t, err)

		ret, err := m.ResolveReturnClass()
		require.NoError(t, err)
		assert.Equal(t, Void, ret)

		typ, err := m.ResolveReturnType()
		require.NoError(t, err)
		assert.Nil(t, typ)

		_, err = m.ReturnType()
		assert.Error(t, err)

		s, err := m.ToStringMethod()
		require.NoError(t, err)
		assert.Equal(t, "void put(Integer)", s)
	})

	t.Run("declaring type outside hierarchy", func(t *testing.T) {
		_, err := ctx.Method(method(t, reg, "Holder", "all"))
		var illegal *hierarchy.IllegalHierarchyError
		require.True(t, errors.As(err, &illegal))
		assert.Equal(t, descriptor.TypeID("Holder"), illegal.Target)
		assert.Equal(t, "declaring type of method all", illegal.Reason)
	})
}

func TestMethodContext_InlyingTypes(t *testing.T) {
	reg := testRegistry()
	ctx := resolve(t, reg, "StringHolder")

	all, err := ctx.Method(method(t, reg, "Holder", "all"))
	require.NoError(t, err)
	assert.Same(t, ctx.Closure(), all.Owner().Closure())

	list, err := all.ReturnType()
	require.NoError(t, err)
	assert.Equal(t, descriptor.TypeID("List"), list.CurrentType())
	generics, err := list.GenericsAsString()
	require.NoError(t, err)
	assert.Equal(t, []string{"String"}, generics)

	impl, err := all.ReturnTypeAs("ArrayList")
	require.NoError(t, err)
	assert.Equal(t, descriptor.TypeID("ArrayList"), impl.CurrentType())

	root := resolve(t, reg, "Root")
	shadow, err := root.Method(method(t, reg, "Base", "shadow"))
	require.NoError(t, err)
	arg, err := shadow.ParameterType(0)
	require.NoError(t, err)
	assert.Equal(t, descriptor.TypeID("Number"), arg.CurrentType())

	_, err = shadow.ParameterType(3)
	assert.Error(t, err)
}
