package poly

import "reflect"

// As returns a pointer to the live payload when its concrete type is exactly
// T. The pointer aims into the handle's storage, so writes through it mutate
// the contained value in place. A mismatched type or an empty handle reports
// false.
func As[T any](h Handle) (*T, bool) {
	if h == nil {
		return nil, false
	}
	m := h.mutModel()
	if !m.valid() || m.vt.typ != reflect.TypeFor[T]() {
		return nil, false
	}
	return (*T)(m.data), true
}

// ValueAs returns a copy of the live payload when its concrete type is
// exactly T. It accepts read-only handles; the copy keeps ConstPtr sources
// immutable.
func ValueAs[T any](h ReadHandle) (T, bool) {
	var zero T
	if h == nil {
		return zero, false
	}
	m := h.readModel()
	if !m.valid() || m.vt.typ != reflect.TypeFor[T]() {
		return zero, false
	}
	return *(*T)(m.data), true
}

// Cast is the error-reporting form of As: a mismatch or an empty handle
// yields a *CastError wrapping ErrInvalidCast, naming both sides.
func Cast[T any](h Handle) (*T, error) {
	want := TypeOf[T]()
	if h == nil {
		return nil, newCastError(want, NoType)
	}
	m := h.mutModel()
	if !m.valid() {
		return nil, newCastError(want, NoType)
	}
	if m.vt.typ != want.reflectType() {
		return nil, newCastError(want, m.typeInfo())
	}
	return (*T)(m.data), nil
}

// StaticCast reinterprets the live payload as T without a type check. The
// caller must have established that the handle holds exactly T; casting to
// the wrong type corrupts every access through the result. Dereferencing an
// empty handle is diagnosed through the failure hook.
func StaticCast[T any](h Handle) *T {
	if h == nil {
		failf("static cast through a nil handle")
	}
	m := h.mutModel()
	if !m.valid() {
		failf("static cast through an empty handle")
	}
	return (*T)(m.data)
}
