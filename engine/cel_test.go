package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELCompilerEvaluatesAgainstEnv(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		variables []string
		env       Env
		want      any
	}{
		{
			name:      "arithmetic over bindings",
			source:    "limit * 2",
			variables: []string{"limit"},
			env:       Env{"limit": 21},
			want:      int64(42),
		},
		{
			name:      "boolean guard",
			source:    "limit - used >= 2",
			variables: []string{"limit", "used"},
			env:       Env{"limit": 5, "used": 3},
			want:      true,
		},
		{
			name:      "ternary selection",
			source:    `score > 90 ? "a" : "b"`,
			variables: []string{"score"},
			env:       Env{"score": 95},
			want:      "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler := NewCELCompiler(CELWithVariables(tt.variables...))
			program, err := compiler.Compile(tt.source)
			require.NoError(t, err)
			out, err := program.Eval(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, "cel", program.Engine())
		})
	}
}

func TestCELRejectsUndeclaredVariables(t *testing.T) {
	_, err := NewCELCompiler().Compile("limit > 0")
	require.Error(t, err, "cel checks variable references at compile time")
	assert.ErrorContains(t, err, "engine: cel compile")
}

func TestCELCompilerRejectsEmptySource(t *testing.T) {
	_, err := NewCELCompiler().Compile("")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestCELCompilerCachesPrograms(t *testing.T) {
	cache := NewMemoryCache()
	compiler := NewCELCompiler(CELWithCache(cache), CELWithVariables("limit"))

	first, err := compiler.Compile("limit > 0")
	require.NoError(t, err)
	second, err := compiler.Compile("limit > 0")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len())
	assert.True(t, first.Equal(second))
}

func TestCELCallBuiltinDispatchesToRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("grade", func(args ...any) (any, error) {
		score, _ := args[0].(int64)
		if score >= 90 {
			return "a", nil
		}
		return "b", nil
	}))

	compiler := NewCELCompiler(CELWithFunctions(registry), CELWithVariables("score"))
	program, err := compiler.Compile(`call("grade", score) == "a"`)
	require.NoError(t, err)

	out, err := program.Eval(Env{"score": 95})
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = program.Eval(Env{"score": 40})
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

func TestCELCallBuiltinSurfacesRegistryErrors(t *testing.T) {
	registry := NewFunctionRegistry()
	compiler := NewCELCompiler(CELWithFunctions(registry), CELWithVariables("score"))
	program, err := compiler.Compile(`call("missing", score)`)
	require.NoError(t, err)

	_, err = program.Eval(Env{"score": 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "not registered")
}
