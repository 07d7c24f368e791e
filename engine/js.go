//go:build js_eval

package engine

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/goliatone/go-poly"
)

// JSAvailable reports whether the JavaScript engine was built in.
func JSAvailable() bool {
	return true
}

// CompileJS compiles rule text with goja and returns it already erased; the
// concrete program type only exists under the js_eval build tag, so it never
// crosses the package boundary.
func CompileJS(source string, opts ...JSOption) (*poly.Any[Program], error) {
	cfg := applyJSOptions(opts)
	if source == "" {
		return nil, wrapCompileError("js", ErrEmptySource)
	}
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(source); ok {
			if program, ok := cached.(jsProgram); ok {
				return Erase(program), nil
			}
		}
	}

	compiled, err := goja.Compile("", wrapJSExpression(source), false)
	if err != nil {
		return nil, wrapCompileError("js", err)
	}

	program := jsProgram{source: source, program: compiled, registry: cfg.registry}
	if cfg.cache != nil {
		cfg.cache.Set(source, program)
	}
	return Erase(program), nil
}

// jsProgram is a compiled JavaScript rule. Each evaluation runs in a fresh
// runtime, so one program stays safe to share.
type jsProgram struct {
	source   string
	program  *goja.Program
	registry *FunctionRegistry
}

func (p jsProgram) Eval(env Env) (any, error) {
	if p.program == nil {
		return nil, wrapEvalError("js", p.source, ErrNoProgram)
	}
	vm := goja.New()
	for key, value := range env {
		vm.Set(key, value)
	}
	bindings := Env{}
	p.registry.Bind(bindings)
	for key, value := range bindings {
		vm.Set(key, value)
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, wrapEvalError("js", p.source, err)
	}
	return value.Export(), nil
}

func (p jsProgram) Source() string {
	return p.source
}

func (p jsProgram) Engine() string {
	return "js"
}

func (p jsProgram) Equal(o jsProgram) bool {
	return p.source == o.source
}

// wrapJSExpression turns a bare expression into a returning function body, so
// rules read like the other engines' expressions.
func wrapJSExpression(source string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", source)
}
