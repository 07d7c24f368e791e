// Package engine erases compiled rule programs behind a single capability
// chain. Rules compiled by expr-lang, cel-go, or goja all surface as
// poly.Any[Program] containers, so callers can store, copy, compare, and
// evaluate them without knowing which engine produced them.
package engine

import (
	"time"

	"github.com/goliatone/go-poly"
)

// Env carries the variable bindings a program evaluates against.
type Env map[string]any

// Program is the capability surface shared by every compiled rule program.
// Programs are immutable once compiled and safe to evaluate concurrently.
type Program interface {
	// Eval runs the program against env.
	Eval(env Env) (any, error)
	// Source returns the rule text the program was compiled from.
	Source() string
	// Engine names the engine that compiled the program.
	Engine() string
}

// IProgram is the capability chain programs are erased under. It extends
// Semiregular, so erased programs can be moved, copied, and compared.
var IProgram = poly.Define[Program]("engine.program", poly.Extends(poly.Semiregular))

// Erase wraps a compiled program in an owning container over IProgram. The
// program must be non-nil.
func Erase(p Program, opts ...poly.ContainerOption) *poly.Any[Program] {
	return poly.New[Program](p, opts...)
}

// EvalOption configures one evaluation run.
type EvalOption func(*evalConfig)

type evalConfig struct {
	logger Logger
}

// WithLogger attaches a logger to the run. Passing nil restores the no-op
// logger.
func WithLogger(logger Logger) EvalOption {
	return func(cfg *evalConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// Evaluate runs the program held by h against env, timing the run and
// reporting it to the configured logger. An empty handle, or one whose chain
// does not carry Program, yields ErrNoProgram.
func Evaluate(h poly.ReadHandle, env Env, opts ...EvalOption) (any, error) {
	cfg := evalConfig{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	prog, ok := poly.ViaOK[Program](h)
	if !ok {
		return nil, ErrNoProgram
	}

	start := time.Now()
	value, evalErr := prog.Eval(env)
	duration := time.Since(start)
	evalErr = wrapEvalError(prog.Engine(), prog.Source(), evalErr)
	cfg.logger.LogEvaluation(LogEvent{
		Engine:   prog.Engine(),
		Source:   prog.Source(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}
