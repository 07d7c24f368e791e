package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doubleFn(args ...any) (any, error) {
	n, _ := args[0].(int)
	return n * 2, nil
}

func TestRegistryRegisterValidation(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("Double", doubleFn))

	err := registry.Register("double", doubleFn)
	assert.ErrorContains(t, err, "already registered", "names collide case-insensitively")
	assert.Error(t, registry.Register("", doubleFn))
	assert.Error(t, registry.Register("noop", nil))
}

func TestRegistryCallIsCaseInsensitive(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("Double", doubleFn))

	out, err := registry.Call("DOUBLE", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	_, err = registry.Call("triple", 1)
	assert.ErrorContains(t, err, "not registered")
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("double", doubleFn))

	clone := registry.Clone()
	require.NoError(t, registry.Register("late", doubleFn))

	assert.Equal(t, []string{"double", "late"}, registry.Names())
	assert.Equal(t, []string{"double"}, clone.Names(), "registrations after a clone stay out of it")

	var nilRegistry *FunctionRegistry
	assert.Nil(t, nilRegistry.Clone())
	assert.Nil(t, nilRegistry.Names())
	_, err := nilRegistry.Call("double", 1)
	assert.Error(t, err)
}

func TestRegistryBindExposesCallables(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("double", doubleFn))

	env := Env{}
	registry.Bind(env)

	call, ok := env["call"].(func(string, ...any) (any, error))
	require.True(t, ok)
	out, err := call("double", 3)
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	direct, ok := env["double"].(func(...any) (any, error))
	require.True(t, ok)
	out, err = direct(5)
	require.NoError(t, err)
	assert.Equal(t, 10, out)

	var nilRegistry *FunctionRegistry
	nilRegistry.Bind(env)
	registry.Bind(nil)
}
