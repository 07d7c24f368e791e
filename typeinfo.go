package poly

import (
	"reflect"
	"sync"
)

// TypeInfo is a stable, comparable identity token for a concrete payload
// type: a display name plus equality and ordering. Tokens are interned, so
// equality is pointer identity and safe to use in hot paths. The zero value is
// NoType, the identity of "no payload": it compares equal only to itself and
// orders before every real type.
type TypeInfo struct {
	e *typeEntry
}

// NoType is the type identity reported by empty containers and views.
var NoType TypeInfo

type typeEntry struct {
	name string
	rt   reflect.Type
	seq  uint64
}

// typeRegistry interns one entry per concrete reflect.Type. Registration
// order provides a process-local tiebreak for types that stringify
// identically (distinct anonymous types can share a name).
type typeRegistry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*typeEntry
	nextSeq uint64
}

var typeIDs = typeRegistry{entries: map[reflect.Type]*typeEntry{}}

func (r *typeRegistry) intern(rt reflect.Type) TypeInfo {
	r.mu.RLock()
	e, ok := r.entries[rt]
	r.mu.RUnlock()
	if ok {
		return TypeInfo{e: e}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[rt]; ok {
		return TypeInfo{e: e}
	}
	r.nextSeq++
	e = &typeEntry{name: rt.String(), rt: rt, seq: r.nextSeq}
	r.entries[rt] = e
	return TypeInfo{e: e}
}

// TypeOf returns the interned identity token for the concrete type T.
func TypeOf[T any]() TypeInfo {
	return typeIDs.intern(reflect.TypeFor[T]())
}

// TypeInfoOf returns the identity token for v's dynamic type, or NoType when
// v is nil.
func TypeInfoOf(v any) TypeInfo {
	if v == nil {
		return NoType
	}
	return typeIDs.intern(reflect.TypeOf(v))
}

func typeInfoFor(rt reflect.Type) TypeInfo {
	if rt == nil {
		return NoType
	}
	return typeIDs.intern(rt)
}

// IsNone reports whether ti is the NoType token.
func (ti TypeInfo) IsNone() bool {
	return ti.e == nil
}

// Name returns the display name of the identified type, "<none>" for NoType.
func (ti TypeInfo) Name() string {
	if ti.e == nil {
		return "<none>"
	}
	return ti.e.name
}

// Equal reports whether both tokens identify the same concrete type. NoType
// equals only NoType.
func (ti TypeInfo) Equal(other TypeInfo) bool {
	return ti.e == other.e
}

// Compare orders tokens: NoType first, then by display name, with
// registration order breaking naming ties. The ordering is total and stable
// within a process.
func (ti TypeInfo) Compare(other TypeInfo) int {
	switch {
	case ti.e == other.e:
		return 0
	case ti.e == nil:
		return -1
	case other.e == nil:
		return 1
	}
	if ti.e.name != other.e.name {
		if ti.e.name < other.e.name {
			return -1
		}
		return 1
	}
	if ti.e.seq < other.e.seq {
		return -1
	}
	return 1
}

// String implements fmt.Stringer using the display name.
func (ti TypeInfo) String() string {
	return ti.Name()
}

// reflectType exposes the underlying reflect.Type, nil for NoType.
func (ti TypeInfo) reflectType() reflect.Type {
	if ti.e == nil {
		return nil
	}
	return ti.e.rt
}
