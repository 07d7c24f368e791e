package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoProgram indicates evaluation through an empty handle or a zero
	// program value.
	ErrNoProgram = errors.New("engine: no program bound")
	// ErrEmptySource indicates a compile request without rule text.
	ErrEmptySource = errors.New("engine: source must not be empty")
	// ErrJSUnavailable indicates the JavaScript engine was not built in.
	ErrJSUnavailable = errors.New("engine: javascript engine requires the js_eval build tag")
)

// EvalError captures engine metadata alongside the originating error.
type EvalError struct {
	Engine string
	Source string
	Err    error
}

func (e *EvalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("engine: %s program %s: %v", e.Engine, describeSource(e.Source), e.Err)
}

func (e *EvalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeSource(source string) string {
	if source == "" {
		return "source=<empty>"
	}
	return fmt.Sprintf("source=%q", source)
}

// wrapEvalError attaches engine metadata, filling blanks on an existing
// EvalError instead of double-wrapping.
func wrapEvalError(engineName, source string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engineName
		}
		if evalErr.Source == "" {
			evalErr.Source = source
		}
		return evalErr
	}

	return &EvalError{Engine: engineName, Source: source, Err: err}
}

func wrapCompileError(engineName string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "engine:") {
		return err
	}
	return fmt.Errorf("engine: %s compile: %w", engineName, err)
}
