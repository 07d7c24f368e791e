// Package poly provides value-semantics polymorphism containers: composable
// capability interfaces, an owning container with inline small-buffer storage,
// non-owning pointer views, and checked/unchecked downcasts back to the
// concrete payload.
package poly

import (
	"fmt"
	"reflect"
)

// ReadHandle is the read-only surface shared by every erased container and
// view in this package. Capability methods invoked through a read-only handle
// must not mutate the payload; Go cannot enforce that contract, so it is a
// documented precondition rather than a compile-time one.
type ReadHandle interface {
	// IsEmpty reports whether the handle currently holds no payload.
	IsEmpty() bool
	// Type returns the identity token of the live payload, NoType when empty.
	Type() TypeInfo

	readModel() model
	chainOf() *chain
	viewKind() bool
}

// Handle is the mutable surface: owning containers and mutable views. Casting
// operators that hand out addressable payload access require a Handle, which
// keeps ConstPtr out of the mutable paths by construction.
type Handle interface {
	ReadHandle

	mutModel() model
}

// Via returns the live payload as the capability interface I, addressed in
// place: method calls through the result operate on the stored value, not a
// copy. I must be part of the handle's capability chain and the handle must be
// non-empty; violating either is a programmer error reported through the
// failure hook.
func Via[I any](h ReadHandle) I {
	v, ok := ViaOK[I](h)
	if !ok {
		var zero I
		if h == nil || h.IsEmpty() {
			failf("pure capability call: %s invoked on empty handle", reflect.TypeFor[I]())
		}
		failf("capability %s is not part of chain %s", reflect.TypeFor[I](), h.chainOf().name())
		return zero
	}
	return v
}

// ViaOK is the non-fatal form of Via. It reports false when the handle is
// empty or when I is not implemented by the handle's capability chain.
func ViaOK[I any](h ReadHandle) (I, bool) {
	var zero I
	if h == nil {
		return zero, false
	}
	m := h.readModel()
	if !m.valid() {
		return zero, false
	}
	v, ok := m.payloadIface().(I)
	if !ok {
		return zero, false
	}
	return v, true
}

// Call dispatches a capability method by name through the handle's dispatch
// table. Arguments are converted to the method's parameter types where
// assignable; arity or type mismatches are reported as recoverable errors.
// Calling a method that exists nowhere in the chain, or calling through an
// empty handle, is a programmer error routed to the failure hook by the fail
// stub installed for that tier.
func Call(h Handle, method string, args ...any) ([]any, error) {
	if h == nil {
		return nil, fmt.Errorf("poly: call %q on nil handle", method)
	}
	m := h.readModel()
	entry, ok := m.vt.lookup(method)
	if !ok {
		failf("pure capability call: method %q not implemented by chain %s", method, h.chainOf().name())
		return nil, nil
	}
	in, err := convertArgs(entry, args)
	if err != nil {
		return nil, fmt.Errorf("poly: call %q: %w", method, err)
	}
	out := entry.invoke(m.data, in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func convertArgs(entry dispatchEntry, args []any) ([]reflect.Value, error) {
	ft := entry.argTypes
	if len(args) != len(ft) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(ft), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft[i]
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			if !v.Type().ConvertibleTo(want) {
				return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, v.Type(), want)
			}
			v = v.Convert(want)
		}
		in[i] = v
	}
	return in, nil
}
