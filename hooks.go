package poly

import "fmt"

// FailFunc receives the diagnostic message for a programmer-error condition:
// a pure capability call, a dereference of an empty handle, a non-conforming
// payload, or a capability constraint violation. The handler is expected to
// terminate the failing flow (panic, os.Exit, test capture); if it returns
// normally the package panics as a backstop so invalid state can never leak
// past the failure point.
type FailFunc func(msg string)

var failHandler FailFunc

// SetFailHandler installs fn as the diagnostic failure handler and returns the
// previous one so callers can restore it. Passing nil restores the default
// behavior, which panics with the diagnostic message.
//
// The handler is process-global and follows the package's single-threaded
// model: install it during setup, not concurrently with container use.
func SetFailHandler(fn FailFunc) FailFunc {
	prev := failHandler
	failHandler = fn
	return prev
}

func failf(format string, args ...any) {
	msg := "poly: " + fmt.Sprintf(format, args...)
	if h := failHandler; h != nil {
		h(msg)
	}
	panic(msg)
}
