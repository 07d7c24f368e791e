package poly

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/goliatone/go-poly/internal/memlayout"
)

// boxKind tags what sits beneath a dispatch tier: nothing (abstract, every
// call fails), a concrete payload (object, calls go straight to it), or
// another erased model (proxy, calls forward one level).
type boxKind uint8

const (
	boxAbstract boxKind = iota
	boxObject
	boxProxy
)

func (k boxKind) String() string {
	switch k {
	case boxObject:
		return "object"
	case boxProxy:
		return "proxy"
	default:
		return "abstract"
	}
}

// model is the invocable unit: a payload address capped by the dispatch table
// that serves its capability chain. An invalid model (nil data) represents
// emptiness; its table is the chain's abstract table.
type model struct {
	data unsafe.Pointer
	vt   *vtable
}

func (m model) valid() bool {
	return m.data != nil
}

func (m model) typeInfo() TypeInfo {
	if !m.valid() || m.vt == nil {
		return NoType
	}
	return m.vt.ti
}

// payloadIface returns the payload, addressed in place, as an interface
// value: *T for addressable payloads, the loaded value for payloads that are
// themselves pointer-shaped.
func (m model) payloadIface() any {
	if !m.valid() || m.vt == nil || m.vt.typ == nil {
		return nil
	}
	return m.vt.ifaceAt(m.data)
}

// dispatchEntry is one slot of a dispatch table: a direct call into the
// payload, a forwarding call into an inner model, or a fail stub for the
// abstract tier.
type dispatchEntry struct {
	name     string
	tier     boxKind
	argTypes []reflect.Type
	call     func(data unsafe.Pointer, in []reflect.Value) []reflect.Value
}

func (e dispatchEntry) invoke(data unsafe.Pointer, in []reflect.Value) []reflect.Value {
	return e.call(data, in)
}

// vtable is the dispatch table for one (chain, concrete payload type) pair,
// built once and cached. It also carries the layout facts and transfer
// strategies the storage layer needs: inline eligibility, equality, copy.
type vtable struct {
	kind   boxKind
	ti     TypeInfo
	typ    reflect.Type
	ptrTyp reflect.Type
	layout memlayout.Info
	ch     *chain

	// viaPtr selects the receiver form: true means methods are called on *T
	// addressed into storage (mutations land in place), false means the
	// payload value itself carries the method set (pointer-shaped payloads).
	viaPtr bool

	// inline reports whether this payload may live in the chain's buffer.
	inline bool

	entries map[string]dispatchEntry

	equalFn func(a, b unsafe.Pointer) bool
	copyFn  func(src unsafe.Pointer) reflect.Value
}

func (vt *vtable) lookup(name string) (dispatchEntry, bool) {
	e, ok := vt.entries[name]
	return e, ok
}

func (vt *vtable) ifaceAt(data unsafe.Pointer) any {
	v := reflect.NewAt(vt.typ, data)
	if vt.viaPtr {
		return v.Interface()
	}
	return v.Elem().Interface()
}

func (vt *vtable) loadValue(data unsafe.Pointer) reflect.Value {
	return reflect.NewAt(vt.typ, data).Elem()
}

type tableKey struct {
	ch  *chain
	typ reflect.Type
}

type tableRegistry struct {
	mu      sync.RWMutex
	entries map[tableKey]*vtable
}

var tables = tableRegistry{entries: map[tableKey]*vtable{}}

// tableFor returns the cached dispatch table for typ under chain c, building
// and validating it on first use. Conformance and capability-constraint
// violations (missing methods, non-comparable payload under an equality
// chain, locked payload under a copy chain) are programmer errors.
func tableFor(c *chain, typ reflect.Type) *vtable {
	key := tableKey{ch: c, typ: typ}
	tables.mu.RLock()
	vt, ok := tables.entries[key]
	tables.mu.RUnlock()
	if ok {
		return vt
	}

	vt = buildTable(c, typ)

	tables.mu.Lock()
	defer tables.mu.Unlock()
	if existing, ok := tables.entries[key]; ok {
		return existing
	}
	tables.entries[key] = vt
	return vt
}

func buildTable(c *chain, typ reflect.Type) *vtable {
	if typ.Kind() == reflect.Interface {
		failf("cannot erase interface type %s; erase a concrete payload", typ)
	}
	ptrTyp := reflect.PointerTo(typ)

	viaPtr := true
	for _, m := range c.members {
		if m.rt.NumMethod() == 0 {
			continue
		}
		if ptrTyp.Implements(m.rt) {
			continue
		}
		if typ.Implements(m.rt) {
			viaPtr = false
			continue
		}
		failf("payload %s does not implement capability %s", typ, m.name)
	}
	if !viaPtr {
		// Pointer-shaped payloads must carry the whole method set themselves.
		for _, m := range c.members {
			if m.rt.NumMethod() > 0 && !typ.Implements(m.rt) {
				failf("payload %s does not implement capability %s", typ, m.name)
			}
		}
	}

	layout := memlayout.Of(typ)
	vt := &vtable{
		kind:    boxObject,
		ti:      typeInfoFor(typ),
		typ:     typ,
		ptrTyp:  ptrTyp,
		layout:  layout,
		ch:      c,
		viaPtr:  viaPtr,
		entries: make(map[string]dispatchEntry, len(c.methods)),
	}
	vt.inline = layout.Size <= c.bufferBytes() &&
		layout.PointerFree &&
		(!c.movable() || !layout.HasLocker)

	recvTyp := typ
	if viaPtr {
		recvTyp = ptrTyp
	}
	for _, cm := range c.methods {
		rm, ok := recvTyp.MethodByName(cm.Name)
		if !ok {
			failf("payload %s does not implement capability method %s", typ, cm.Name)
		}
		vt.entries[cm.Name] = directEntry(cm, rm, typ, viaPtr)
	}

	if c.comparable() {
		vt.equalFn = equalStrategy(c, typ, recvTyp, viaPtr, layout)
	}
	if c.copyable() {
		vt.copyFn = copyStrategy(c, typ, recvTyp, viaPtr, layout)
	}
	return vt
}

func directEntry(cm Method, rm reflect.Method, typ reflect.Type, viaPtr bool) dispatchEntry {
	args := make([]reflect.Type, cm.Type.NumIn())
	for i := range args {
		args[i] = cm.Type.In(i)
	}
	fn := rm.Func
	return dispatchEntry{
		name:     cm.Name,
		tier:     boxObject,
		argTypes: args,
		call: func(data unsafe.Pointer, in []reflect.Value) []reflect.Value {
			recv := reflect.NewAt(typ, data)
			if !viaPtr {
				recv = recv.Elem()
			}
			return fn.Call(append([]reflect.Value{recv}, in...))
		},
	}
}

// newAbstractTable builds the fail-stub table shared by all empty handles of
// one chain: every capability entry reports a pure call through the failure
// hook.
func newAbstractTable(c *chain) *vtable {
	vt := &vtable{
		kind:    boxAbstract,
		ti:      NoType,
		ch:      c,
		entries: make(map[string]dispatchEntry, len(c.methods)),
	}
	for _, cm := range c.methods {
		cm := cm
		args := make([]reflect.Type, cm.Type.NumIn())
		for i := range args {
			args[i] = cm.Type.In(i)
		}
		vt.entries[cm.Name] = dispatchEntry{
			name:     cm.Name,
			tier:     boxAbstract,
			argTypes: args,
			call: func(unsafe.Pointer, []reflect.Value) []reflect.Value {
				failf("pure capability call: %s.%s", c.name(), cm.Name)
				return nil
			},
		}
	}
	return vt
}

// narrowTable rebinds an existing model's table to a narrower view chain:
// every entry the view requires forwards to the source table's entry, one
// level of indirection. Used when a view embeds its own reference model.
func narrowTable(src *vtable, view *chain) *vtable {
	vt := &vtable{
		kind:    boxProxy,
		ti:      src.ti,
		typ:     src.typ,
		ptrTyp:  src.ptrTyp,
		layout:  src.layout,
		ch:      view,
		viaPtr:  src.viaPtr,
		inline:  src.inline,
		entries: make(map[string]dispatchEntry, len(view.methods)),
		equalFn: src.equalFn,
		copyFn:  src.copyFn,
	}
	for _, cm := range view.methods {
		inner, ok := src.lookup(cm.Name)
		if !ok {
			failf("cannot rebind %s: source chain %s lacks method %s", view.name(), src.ch.name(), cm.Name)
		}
		vt.entries[cm.Name] = dispatchEntry{
			name:     cm.Name,
			tier:     boxProxy,
			argTypes: inner.argTypes,
			call:     inner.call,
		}
	}
	return vt
}

func equalStrategy(c *chain, typ, recvTyp reflect.Type, viaPtr bool, layout memlayout.Info) func(a, b unsafe.Pointer) bool {
	if rm, ok := recvTyp.MethodByName("Equal"); ok {
		mt := rm.Func.Type()
		if mt.NumIn() == 2 && mt.In(1) == typ && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool {
			fn := rm.Func
			return func(a, b unsafe.Pointer) bool {
				recv := reflect.NewAt(typ, a)
				if !viaPtr {
					recv = recv.Elem()
				}
				arg := reflect.NewAt(typ, b).Elem()
				return fn.Call([]reflect.Value{recv, arg})[0].Bool()
			}
		}
	}
	if layout.Comparable {
		return func(a, b unsafe.Pointer) bool {
			av := reflect.NewAt(typ, a).Elem().Interface()
			bv := reflect.NewAt(typ, b).Elem().Interface()
			return av == bv
		}
	}
	failf("payload %s under equality-comparable chain %s has no Equal method and is not comparable", typ, c.name())
	return nil
}

func copyStrategy(c *chain, typ, recvTyp reflect.Type, viaPtr bool, layout memlayout.Info) func(src unsafe.Pointer) reflect.Value {
	if rm, ok := recvTyp.MethodByName("Copy"); ok {
		mt := rm.Func.Type()
		if mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0) == typ {
			fn := rm.Func
			return func(src unsafe.Pointer) reflect.Value {
				recv := reflect.NewAt(typ, src)
				if !viaPtr {
					recv = recv.Elem()
				}
				return fn.Call([]reflect.Value{recv})[0]
			}
		}
	}
	if layout.HasLocker {
		failf("payload %s carries a lock and no Copy method; chain %s requires copy", typ, c.name())
	}
	return func(src unsafe.Pointer) reflect.Value {
		out := reflect.New(typ).Elem()
		out.Set(reflect.NewAt(typ, src).Elem())
		return out
	}
}
