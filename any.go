package poly

import (
	"context"
	"fmt"

	"github.com/goliatone/go-poly/pkg/events"
)

// Any is an owning, value-semantics polymorphism container over the
// capability interface I. It holds at most one payload implementing I's
// capability chain, placed either in the inline buffer or on the heap. The
// zero value is an empty container ready for use.
type Any[I any] struct {
	s   storage
	cfg containerConfig
	ch  *chain
}

// ContainerOption configures a container at construction time.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	hooks   events.Hooks
	emitter *events.Emitter
}

// WithHooks attaches lifecycle hooks observing the container's storage
// transitions. Nil hooks are dropped.
func WithHooks(hooks ...events.Hook) ContainerOption {
	return func(cfg *containerConfig) {
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			cfg.hooks = append(cfg.hooks, hook)
		}
		cfg.emitter = nil
	}
}

func (cfg *containerConfig) ensureEmitter() *events.Emitter {
	if cfg.emitter == nil {
		cfg.emitter = events.NewEmitter(cfg.hooks, events.Config{Enabled: len(cfg.hooks) > 0})
	}
	return cfg.emitter
}

// New wraps payload in a fresh container over I. The payload's concrete type
// must implement I's whole capability chain; a non-conforming payload is a
// programmer error reported through the failure hook.
func New[I any](payload any, opts ...ContainerOption) *Any[I] {
	a := Empty[I](opts...)
	a.Emplace(payload)
	return a
}

// Empty returns an empty container over I carrying the given options.
func Empty[I any](opts ...ContainerOption) *Any[I] {
	a := &Any[I]{ch: chainFor[I]()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&a.cfg)
	}
	return a
}

func (a *Any[I]) chainRef() *chain {
	if a.ch == nil {
		a.ch = chainFor[I]()
	}
	return a.ch
}

// Emplace destroys the current contents, if any, and constructs payload in
// their place.
func (a *Any[I]) Emplace(payload any) {
	a.s.emplace(a.chainRef(), payload)
	a.emit(events.OpEmplace, a.s.vt.ti.Name())
}

// Reset drops the current contents, leaving the container empty. Resetting an
// empty container is a no-op.
func (a *Any[I]) Reset() {
	if a == nil || a.s.isEmpty() {
		return
	}
	payload := a.s.vt.ti.Name()
	a.s.reset()
	a.emit(events.OpReset, payload)
}

// IsEmpty reports whether the container holds no payload.
func (a *Any[I]) IsEmpty() bool {
	return a == nil || a.s.isEmpty()
}

// Type returns the identity token of the live payload, NoType when empty.
func (a *Any[I]) Type() TypeInfo {
	if a == nil {
		return NoType
	}
	return a.s.model(a.chainRef()).typeInfo()
}

// InSitu reports whether the payload currently lives in the inline buffer.
// Empty containers report false.
func (a *Any[I]) InSitu() bool {
	return a != nil && a.s.kind == storageInline
}

// Interface returns the container's capability interface descriptor.
func (a *Any[I]) Interface() *Interface {
	if a == nil {
		return chainFor[I]().self
	}
	return a.chainRef().self
}

// Equal reports whether both containers hold payloads of the same type that
// compare equal. Two empty containers are equal; an empty and a non-empty one
// are not. The chain must carry the EqualityComparable capability; asking a
// non-comparable chain is a programmer error.
func (a *Any[I]) Equal(other *Any[I]) bool {
	c := a.chainRef()
	if !c.comparable() {
		failf("chain %s does not carry the equality capability", c.name())
	}
	ta := a.Type()
	tb := NoType
	if other != nil {
		tb = other.Type()
	}
	if !ta.Equal(tb) {
		return false
	}
	if ta.IsNone() {
		return true
	}
	return a.s.vt.equalFn(a.s.ptr, other.s.ptr)
}

// Swap exchanges the contents of both containers, covering every combination
// of empty, inline, and heap storage on either side. Swapping a container
// with itself is a no-op. The chain must carry the Movable capability;
// swapping a non-movable chain is a programmer error.
func (a *Any[I]) Swap(other *Any[I]) {
	c := a.chainRef()
	if !c.movable() {
		failf("chain %s does not carry the move capability; swap is unavailable", c.name())
	}
	if other == nil {
		failf("swap with a nil container")
	}
	if a == other {
		return
	}
	a.s.swap(&other.s, c)
	a.emit(events.OpSwap, a.payloadName())
	other.emit(events.OpSwap, other.payloadName())
}

// CopyOf builds an independent container holding a copy of src's payload.
// The chain must carry the Copyable capability; ErrNotCopyable is returned
// otherwise. Copying an empty container yields an empty container.
func CopyOf[I any](src *Any[I], opts ...ContainerOption) (*Any[I], error) {
	c := chainFor[I]()
	if !c.copyable() {
		return nil, fmt.Errorf("%w: %s", ErrNotCopyable, c.name())
	}
	dst := Empty[I](opts...)
	if src == nil || src.s.isEmpty() {
		return dst, nil
	}
	src.s.copyTo(&dst.s, c)
	dst.emit(events.OpCopy, dst.payloadName())
	return dst, nil
}

// Upcast converts a container to one over a base interface B of its chain,
// consuming src: the model is transferred and src is left empty. Converting
// an empty container yields an empty container. ErrIncompatibleChain is
// returned when I does not extend B. Because the transfer is a move, the
// source chain must carry the Movable capability.
func Upcast[B, I any](src *Any[I], opts ...ContainerOption) (*Any[B], error) {
	bc := chainFor[B]()
	sc := chainFor[I]()
	if !sc.derivesFrom(bc) {
		return nil, fmt.Errorf("%w: %s does not extend %s", ErrIncompatibleChain, sc.name(), bc.name())
	}
	if !sc.movable() {
		failf("chain %s does not carry the move capability; conversion is unavailable", sc.name())
	}
	dst := Empty[B](opts...)
	if src == nil || src.s.isEmpty() {
		return dst, nil
	}
	src.s.moveTo(&dst.s, bc)
	dst.emit(events.OpMove, dst.payloadName())
	return dst, nil
}

// String renders a short diagnostic description of the container state.
func (a *Any[I]) String() string {
	c := a.chainRef()
	if a.s.isEmpty() {
		return fmt.Sprintf("Any[%s]{empty}", c.name())
	}
	return fmt.Sprintf("Any[%s]{%s %s}", c.name(), a.s.vt.ti.Name(), a.s.kind)
}

func (a *Any[I]) payloadName() string {
	if a.s.isEmpty() {
		return NoType.Name()
	}
	return a.s.vt.ti.Name()
}

// emit forwards a lifecycle event to the attached hooks. Hook failures never
// affect container state.
func (a *Any[I]) emit(op events.Op, payload string) {
	em := a.cfg.ensureEmitter()
	if !em.Enabled() {
		return
	}
	_ = em.Emit(context.Background(), events.Event{
		Op:      op,
		Chain:   a.chainRef().name(),
		Payload: payload,
		Storage: a.s.kind.String(),
		Bytes:   int(a.payloadBytes()),
	})
}

func (a *Any[I]) payloadBytes() uintptr {
	if a.s.isEmpty() || a.s.vt == nil {
		return 0
	}
	return a.s.vt.layout.Size
}

func (a *Any[I]) readModel() model {
	if a == nil {
		return model{vt: chainFor[I]().abstract()}
	}
	return a.s.model(a.chainRef())
}

func (a *Any[I]) mutModel() model {
	return a.readModel()
}

func (a *Any[I]) chainOf() *chain {
	if a == nil {
		return chainFor[I]()
	}
	return a.chainRef()
}

func (a *Any[I]) viewKind() bool {
	return false
}
