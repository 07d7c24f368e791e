package engine

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprOption configures an expr compiler.
type ExprOption func(*ExprCompiler)

// ExprWithCache wires a ProgramCache into the compiler.
func ExprWithCache(cache ProgramCache) ExprOption {
	return func(c *ExprCompiler) {
		c.cache = cache
	}
}

// ExprWithFunctions exposes the registry's functions to compiled programs.
func ExprWithFunctions(registry *FunctionRegistry) ExprOption {
	return func(c *ExprCompiler) {
		if registry == nil {
			return
		}
		c.registry = registry.Clone()
	}
}

// ExprCompiler compiles rule text with expr-lang into erasable programs.
type ExprCompiler struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprCompiler constructs a compiler backed by expr-lang/expr.
func NewExprCompiler(opts ...ExprOption) *ExprCompiler {
	c := &ExprCompiler{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compile builds a reusable program from source. Undefined variables resolve
// at evaluation time, so one program serves many environments.
func (c *ExprCompiler) Compile(source string) (ExprProgram, error) {
	if source == "" {
		return ExprProgram{}, wrapCompileError("expr", ErrEmptySource)
	}
	if c.cache != nil {
		if cached, ok := c.cache.Get(source); ok {
			if program, ok := cached.(ExprProgram); ok {
				return program, nil
			}
		}
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range c.registryNames() {
		options = append(options, exprlang.Function(name, c.registryFunction(name)))
	}
	compiled, err := exprlang.Compile(source, options...)
	if err != nil {
		return ExprProgram{}, wrapCompileError("expr", err)
	}

	program := ExprProgram{source: source, program: compiled, registry: c.registry}
	if c.cache != nil {
		c.cache.Set(source, program)
	}
	return program, nil
}

func (c *ExprCompiler) registryNames() []string {
	if c == nil || c.registry == nil {
		return nil
	}
	return c.registry.Names()
}

func (c *ExprCompiler) registryFunction(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return c.registry.Call(name, args...)
	}
}

// ExprProgram is a compiled expr rule. The zero value is an empty program
// that fails evaluation.
type ExprProgram struct {
	source   string
	program  *exprvm.Program
	registry *FunctionRegistry
}

// Eval runs the program against env.
func (p ExprProgram) Eval(env Env) (any, error) {
	if p.program == nil {
		return nil, wrapEvalError("expr", p.source, ErrNoProgram)
	}
	bindings := make(Env, len(env)+1)
	for key, value := range env {
		bindings[key] = value
	}
	p.registry.Bind(bindings)
	out, err := exprlang.Run(p.program, map[string]any(bindings))
	if err != nil {
		return nil, wrapEvalError("expr", p.source, err)
	}
	return out, nil
}

// Source returns the rule text.
func (p ExprProgram) Source() string {
	return p.source
}

// Engine returns "expr".
func (p ExprProgram) Engine() string {
	return "expr"
}

// Equal compares programs by source; distinct compilations of one rule are
// interchangeable.
func (p ExprProgram) Equal(o ExprProgram) bool {
	return p.source == o.source
}
