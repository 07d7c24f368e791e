package poly

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Ptr is a non-owning mutable view over an erased payload held elsewhere: in
// an owning container, in another view, or in a plain Go value. The zero
// value is an empty view. Copying a Ptr copies the binding, never the
// payload, and the view must not outlive the storage it points into.
type Ptr[I any] struct {
	m  model
	ch *chain
}

// ConstPtr is the read-only counterpart of Ptr. It satisfies only ReadHandle,
// so the casting operators that hand out mutable payload access reject it at
// compile time; a mutable view converts to a ConstPtr with Const, never the
// other way around.
type ConstPtr[I any] struct {
	m  model
	ch *chain
}

// PtrTo binds a mutable view over h's live payload. An empty source yields an
// empty view. The source chain must extend I's chain; binding across
// unrelated chains is a programmer error.
func PtrTo[I any](h Handle) Ptr[I] {
	vc := chainFor[I]()
	p := Ptr[I]{ch: vc}
	if h == nil {
		return p
	}
	p.m = bindView(h.mutModel(), h.chainOf(), vc, h.viewKind())
	return p
}

// ConstPtrTo binds a read-only view over h's live payload, accepting owning
// containers, mutable views, and other read-only views as sources.
func ConstPtrTo[I any](h ReadHandle) ConstPtr[I] {
	vc := chainFor[I]()
	p := ConstPtr[I]{ch: vc}
	if h == nil {
		return p
	}
	p.m = bindView(h.readModel(), h.chainOf(), vc, h.viewKind())
	return p
}

// PtrOf binds a mutable view directly over a Go value, with no owning
// container involved. The value's type must implement I's whole capability
// chain. A nil target yields an empty view.
func PtrOf[I, T any](target *T) Ptr[I] {
	vc := chainFor[I]()
	p := Ptr[I]{ch: vc}
	if target == nil {
		return p
	}
	vt := tableFor(vc, reflect.TypeFor[T]())
	p.m = model{data: unsafe.Pointer(target), vt: vt}
	return p
}

// ConstPtrOf binds a read-only view directly over a Go value.
func ConstPtrOf[I, T any](target *T) ConstPtr[I] {
	vc := chainFor[I]()
	p := ConstPtr[I]{ch: vc}
	if target == nil {
		return p
	}
	vt := tableFor(vc, reflect.TypeFor[T]())
	p.m = model{data: unsafe.Pointer(target), vt: vt}
	return p
}

// bindView narrows a source model to the view chain vc. A source already
// dispatched under vc binds as-is. A source owned by a container rebinds to
// vc's direct table for the payload. A source that is itself a view keeps its
// table intact and forwards through it, so the original binding stays
// observable as the proxy tier.
func bindView(m model, sc, vc *chain, fromView bool) model {
	if !m.valid() {
		return model{}
	}
	if !sc.derivesFrom(vc) {
		failf("chain %s does not extend %s; cannot bind view", sc.name(), vc.name())
	}
	if m.vt.ch == vc {
		return m
	}
	if fromView {
		return model{data: m.data, vt: narrowTable(m.vt, vc)}
	}
	return model{data: m.data, vt: retable(m.vt, vc)}
}

// IsEmpty reports whether the view is unbound.
func (p Ptr[I]) IsEmpty() bool {
	return !p.m.valid()
}

// Type returns the identity token of the viewed payload, NoType when unbound.
func (p Ptr[I]) Type() TypeInfo {
	return p.m.typeInfo()
}

// Equal reports whether both views are bound to the same payload address.
// This is pointer identity, not payload equality; two unbound views are
// equal.
func (p Ptr[I]) Equal(other Ptr[I]) bool {
	return p.m.data == other.m.data
}

// Reset unbinds the view.
func (p *Ptr[I]) Reset() {
	p.m = model{}
}

// Const converts the mutable view into a read-only one over the same payload.
func (p Ptr[I]) Const() ConstPtr[I] {
	return ConstPtr[I]{m: p.m, ch: p.chainOf()}
}

// String renders a short diagnostic description of the view state.
func (p Ptr[I]) String() string {
	if !p.m.valid() {
		return fmt.Sprintf("Ptr[%s]{empty}", p.chainOf().name())
	}
	return fmt.Sprintf("Ptr[%s]{%s %s}", p.chainOf().name(), p.m.vt.ti.Name(), p.m.vt.kind)
}

func (p Ptr[I]) chainOf() *chain {
	if p.ch == nil {
		return chainFor[I]()
	}
	return p.ch
}

func (p Ptr[I]) readModel() model {
	if !p.m.valid() {
		return model{vt: p.chainOf().abstract()}
	}
	return p.m
}

func (p Ptr[I]) mutModel() model {
	return p.readModel()
}

func (p Ptr[I]) viewKind() bool {
	return true
}

// IsEmpty reports whether the view is unbound.
func (p ConstPtr[I]) IsEmpty() bool {
	return !p.m.valid()
}

// Type returns the identity token of the viewed payload, NoType when unbound.
func (p ConstPtr[I]) Type() TypeInfo {
	return p.m.typeInfo()
}

// Equal reports whether both views are bound to the same payload address.
func (p ConstPtr[I]) Equal(other ConstPtr[I]) bool {
	return p.m.data == other.m.data
}

// Reset unbinds the view.
func (p *ConstPtr[I]) Reset() {
	p.m = model{}
}

// String renders a short diagnostic description of the view state.
func (p ConstPtr[I]) String() string {
	if !p.m.valid() {
		return fmt.Sprintf("ConstPtr[%s]{empty}", p.chainOf().name())
	}
	return fmt.Sprintf("ConstPtr[%s]{%s %s}", p.chainOf().name(), p.m.vt.ti.Name(), p.m.vt.kind)
}

func (p ConstPtr[I]) chainOf() *chain {
	if p.ch == nil {
		return chainFor[I]()
	}
	return p.ch
}

func (p ConstPtr[I]) readModel() model {
	if !p.m.valid() {
		return model{vt: p.chainOf().abstract()}
	}
	return p.m
}

func (p ConstPtr[I]) viewKind() bool {
	return true
}
