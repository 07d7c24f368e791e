package engine

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELOption configures a CEL compiler.
type CELOption func(*CELCompiler)

// CELWithCache wires a ProgramCache into the compiler.
func CELWithCache(cache ProgramCache) CELOption {
	return func(c *CELCompiler) {
		c.cache = cache
	}
}

// CELWithFunctions exposes the registry through the call(name, arg) builtin.
func CELWithFunctions(registry *FunctionRegistry) CELOption {
	return func(c *CELCompiler) {
		if registry == nil {
			return
		}
		c.registry = registry.Clone()
	}
}

// CELWithVariables declares the environment variables rules may reference.
// Unlike the other engines, CEL checks variable references at compile time.
func CELWithVariables(names ...string) CELOption {
	return func(c *CELCompiler) {
		c.variables = append(c.variables, names...)
	}
}

// CELCompiler compiles rule text with cel-go into erasable programs.
type CELCompiler struct {
	cache     ProgramCache
	registry  *FunctionRegistry
	variables []string
}

// NewCELCompiler constructs a compiler backed by cel-go.
func NewCELCompiler(opts ...CELOption) *CELCompiler {
	c := &CELCompiler{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compile parses, checks, and plans source against the declared variables.
func (c *CELCompiler) Compile(source string) (CELProgram, error) {
	if source == "" {
		return CELProgram{}, wrapCompileError("cel", ErrEmptySource)
	}
	if c.cache != nil {
		if cached, ok := c.cache.Get(source); ok {
			if program, ok := cached.(CELProgram); ok {
				return program, nil
			}
		}
	}

	env, err := c.buildEnv()
	if err != nil {
		return CELProgram{}, wrapCompileError("cel", err)
	}
	ast, issues := env.Parse(source)
	if issues != nil && issues.Err() != nil {
		return CELProgram{}, wrapCompileError("cel", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return CELProgram{}, wrapCompileError("cel", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return CELProgram{}, wrapCompileError("cel", err)
	}

	program := CELProgram{source: source, program: prg}
	if c.cache != nil {
		c.cache.Set(source, program)
	}
	return program, nil
}

func (c *CELCompiler) buildEnv() (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(c.variables)+1)
	for _, name := range c.variables {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if c.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType},
				celgo.DynType,
				celgo.FunctionBinding(c.callBinding()),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (c *CELCompiler) callBinding() func(...ref.Val) ref.Val {
	registry := c.registry
	return func(values ...ref.Val) ref.Val {
		if registry == nil {
			return types.NewErr("engine: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("engine: call requires a function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("engine: call name must be a string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

// CELProgram is a compiled CEL rule. The zero value is an empty program that
// fails evaluation.
type CELProgram struct {
	source  string
	program celgo.Program
}

// Eval runs the program against env.
func (p CELProgram) Eval(env Env) (any, error) {
	if p.program == nil {
		return nil, wrapEvalError("cel", p.source, ErrNoProgram)
	}
	if env == nil {
		env = Env{}
	}
	out, _, err := p.program.Eval(map[string]any(env))
	if err != nil {
		return nil, wrapEvalError("cel", p.source, err)
	}
	return out.Value(), nil
}

// Source returns the rule text.
func (p CELProgram) Source() string {
	return p.source
}

// Engine returns "cel".
func (p CELProgram) Engine() string {
	return "cel"
}

// Equal compares programs by source; distinct compilations of one rule are
// interchangeable.
func (p CELProgram) Equal(o CELProgram) bool {
	return p.source == o.source
}
