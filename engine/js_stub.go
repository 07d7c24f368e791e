//go:build !js_eval

package engine

import "github.com/goliatone/go-poly"

// JSAvailable reports whether the JavaScript engine was built in.
func JSAvailable() bool {
	return false
}

// CompileJS is unavailable without the js_eval build tag.
func CompileJS(source string, opts ...JSOption) (*poly.Any[Program], error) {
	_ = applyJSOptions(opts)
	return nil, ErrJSUnavailable
}
