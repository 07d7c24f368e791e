package poly

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCast indicates a checked cast whose target type does not match
	// the live payload type.
	ErrInvalidCast = errors.New("poly: invalid cast")
	// ErrNotCopyable indicates a copy request on a chain that does not carry
	// the Copyable capability.
	ErrNotCopyable = errors.New("poly: chain is not copyable")
	// ErrIncompatibleChain indicates a conversion between containers whose
	// capability chains are not related by extension.
	ErrIncompatibleChain = errors.New("poly: incompatible capability chain")
)

// CastError captures both sides of a failed checked cast alongside the
// sentinel it wraps.
type CastError struct {
	Want TypeInfo
	Got  TypeInfo
}

func (e *CastError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("poly: invalid cast: want %s, got %s", describeType(e.Want), describeType(e.Got))
}

func (e *CastError) Unwrap() error {
	if e == nil {
		return nil
	}
	return ErrInvalidCast
}

func describeType(ti TypeInfo) string {
	if ti.IsNone() {
		return "<none>"
	}
	return ti.Name()
}

func newCastError(want, got TypeInfo) error {
	return &CastError{Want: want, Got: got}
}
