// Package memlayout answers memory-layout questions about payload types:
// whether a type contains pointers the garbage collector must see, whether it
// carries locks that pin it to a stable address, and how large it is relative
// to the platform word. The storage layer uses these answers to decide between
// inline and heap placement.
package memlayout

import (
	"reflect"
	"sync"
)

// WordSize is the platform machine-word size in bytes.
var WordSize = int(reflect.TypeFor[uintptr]().Size())

var lockerType = reflect.TypeFor[sync.Locker]()

// Info summarizes the layout-relevant properties of one concrete type.
type Info struct {
	Size        uintptr
	Align       uintptr
	PointerFree bool
	HasLocker   bool
	Comparable  bool
}

type cache struct {
	mu sync.RWMutex
	m  map[reflect.Type]Info
}

var infoCache = cache{m: map[reflect.Type]Info{}}

// Of computes (and caches) the layout info for t. It panics when t is nil;
// callers resolve dynamic types before asking layout questions.
func Of(t reflect.Type) Info {
	infoCache.mu.RLock()
	info, ok := infoCache.m[t]
	infoCache.mu.RUnlock()
	if ok {
		return info
	}

	info = Info{
		Size:        t.Size(),
		Align:       uintptr(t.Align()),
		PointerFree: pointerFree(t),
		HasLocker:   hasLocker(t),
		Comparable:  t.Comparable(),
	}

	infoCache.mu.Lock()
	infoCache.m[t] = info
	infoCache.mu.Unlock()
	return info
}

// pointerFree reports whether values of t contain no pointer words. Only
// pointer-free values may live in a raw byte buffer: the collector does not
// scan inline storage, so a hidden pointer there would be collected out from
// under the container.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		if t.Len() == 0 {
			return true
		}
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Chan, Func, Interface, Map, Pointer, Slice, String, UnsafePointer.
		return false
	}
}

// hasLocker reports whether t, or any field reachable by value, is usable as a
// sync.Locker through its address. Such values must keep a stable address, so
// the storage layer never relocates them. Value traversal cannot cycle: a
// struct cannot contain itself except through a pointer, which is not
// followed here.
func hasLocker(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(lockerType) || t.Implements(lockerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasLocker(t.Field(i).Type) {
				return true
			}
		}
	case reflect.Array:
		if t.Len() > 0 {
			return hasLocker(t.Elem())
		}
	}
	return false
}
