package poly

import (
	"reflect"
	"sync"

	"github.com/goliatone/go-poly/internal/memlayout"
)

// DefaultBufferWords is the inline-storage capacity, in machine words, that an
// interface requires unless overridden with BufferWords. Larger capacities
// keep bigger payloads off the heap at the cost of larger container footprint.
const DefaultBufferWords = 3

// Interface is the immutable runtime descriptor of one capability interface:
// a Go interface type, the bases it extends, and its inline-buffer
// requirement. Descriptors are interned per Go interface type; pointer
// identity is chain identity.
type Interface struct {
	name     string
	rt       reflect.Type
	bases    []*Interface
	bufWords int
	ch       *chain
}

// Method describes one capability method contributed by an interface in a
// chain. Type is the method's function type without a receiver.
type Method struct {
	Name  string
	Type  reflect.Type
	Owner *Interface
}

// InterfaceOption configures metadata on interface definition.
type InterfaceOption func(*interfaceConfig)

type interfaceConfig struct {
	bases    []*Interface
	bufWords int
}

// Extends declares the base interfaces the new interface extends, in
// precedence order. A base reachable through more than one path contributes a
// single capability layer.
func Extends(bases ...*Interface) InterfaceOption {
	return func(cfg *interfaceConfig) {
		for _, b := range bases {
			if b == nil {
				continue
			}
			cfg.bases = append(cfg.bases, b)
		}
	}
}

// BufferWords sets the minimum inline-storage capacity, in machine words,
// that containers over this interface must reserve. A chain adopts the
// largest requirement among its members.
func BufferWords(n int) InterfaceOption {
	return func(cfg *interfaceConfig) {
		cfg.bufWords = n
	}
}

// ifaceRegistry interns one descriptor per Go interface type, so repeated
// Define calls and implicit registrations observe a single chain identity.
type ifaceRegistry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*Interface
}

var interfaces = ifaceRegistry{entries: map[reflect.Type]*Interface{}}

// Define registers the Go interface type I as a capability interface and
// returns its interned descriptor. The empty name defaults to the reflected
// type name. Redefining I with identical metadata returns the existing
// descriptor; redefining it with different bases, name, or buffer size is a
// programmer error. Cyclic extension cannot be expressed: bases are
// descriptor values and must exist before Define runs.
func Define[I any](name string, opts ...InterfaceOption) *Interface {
	rt := reflect.TypeFor[I]()
	if rt.Kind() != reflect.Interface {
		failf("Define requires an interface type, got %s", rt)
	}

	cfg := interfaceConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if name == "" {
		name = rt.String()
	}
	if cfg.bufWords < 0 {
		failf("interface %s: buffer size must not be negative", name)
	}
	if cfg.bufWords == 0 {
		cfg.bufWords = DefaultBufferWords
	}

	interfaces.mu.Lock()
	defer interfaces.mu.Unlock()
	if existing, ok := interfaces.entries[rt]; ok {
		if existing.name != name || existing.bufWords != cfg.bufWords || !sameBases(existing.bases, cfg.bases) {
			failf("conflicting redefinition of interface %s", name)
		}
		return existing
	}

	def := &Interface{
		name:     name,
		rt:       rt,
		bases:    append([]*Interface(nil), cfg.bases...),
		bufWords: cfg.bufWords,
	}
	def.ch = newChain(def)
	interfaces.entries[rt] = def
	return def
}

// interfaceFor resolves the descriptor for a Go interface type, registering
// it implicitly with no bases and the default buffer when unseen. Implicit
// registration keeps plain single-interface erasure working without a Define
// call; composed interfaces still need one.
func interfaceFor(rt reflect.Type) *Interface {
	interfaces.mu.RLock()
	def, ok := interfaces.entries[rt]
	interfaces.mu.RUnlock()
	if ok {
		return def
	}

	if rt.Kind() != reflect.Interface {
		failf("capability chains require an interface type, got %s", rt)
	}

	interfaces.mu.Lock()
	defer interfaces.mu.Unlock()
	if def, ok := interfaces.entries[rt]; ok {
		return def
	}
	def := &Interface{
		name:     rt.String(),
		rt:       rt,
		bufWords: DefaultBufferWords,
	}
	def.ch = newChain(def)
	interfaces.entries[rt] = def
	return def
}

func sameBases(a, b []*Interface) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Name returns the display name given at definition time.
func (i *Interface) Name() string {
	return i.name
}

// BufferWords returns this interface's own inline-capacity requirement.
func (i *Interface) BufferWords() int {
	return i.bufWords
}

// Chain returns the linearized capability chain, innermost base first and the
// interface itself last. The slice is a copy.
func (i *Interface) Chain() []*Interface {
	return append([]*Interface(nil), i.ch.members...)
}

// Implements reports whether base contributes a layer to this interface's
// chain (every interface implements itself).
func (i *Interface) Implements(base *Interface) bool {
	if base == nil {
		return false
	}
	_, ok := i.ch.set[base]
	return ok
}

// Methods returns the chain's combined capability methods in layering order.
func (i *Interface) Methods() []Method {
	out := make([]Method, len(i.ch.methods))
	copy(out, i.ch.methods)
	return out
}

// chain is the resolved linear layering for one interface: every reachable
// base exactly once, innermost first. It is computed once at definition time
// and never mutated afterwards.
type chain struct {
	self        *Interface
	members     []*Interface
	set         map[*Interface]struct{}
	methods     []Method
	byName      map[string]int
	bufferWords int

	abstractOnce sync.Once
	abstractVT   *vtable
}

// newChain linearizes the extension graph rooted at self: each base's own
// bases are merged first, then the base itself is appended if not already
// present. A diamond therefore contributes one layer per interface, and the
// resulting order puts stronger (more derived) layers later.
func newChain(self *Interface) *chain {
	c := &chain{
		self:   self,
		set:    map[*Interface]struct{}{},
		byName: map[string]int{},
	}

	var add func(i *Interface)
	add = func(i *Interface) {
		for _, b := range i.bases {
			add(b)
		}
		if _, ok := c.set[i]; ok {
			return
		}
		c.set[i] = struct{}{}
		c.members = append(c.members, i)
	}
	add(self)

	for _, m := range c.members {
		if m.bufWords > c.bufferWords {
			c.bufferWords = m.bufWords
		}
		for j := 0; j < m.rt.NumMethod(); j++ {
			rm := m.rt.Method(j)
			if idx, ok := c.byName[rm.Name]; ok {
				if c.methods[idx].Type != rm.Type {
					failf("interface %s: method %s conflicts with %s.%s",
						m.name, rm.Name, c.methods[idx].Owner.name, rm.Name)
				}
				continue
			}
			c.byName[rm.Name] = len(c.methods)
			c.methods = append(c.methods, Method{Name: rm.Name, Type: rm.Type, Owner: m})
		}
	}
	return c
}

func (c *chain) name() string {
	return c.self.name
}

// bufferBytes is the chain's inline capacity: the largest member requirement
// in machine words, converted to bytes.
func (c *chain) bufferBytes() uintptr {
	return uintptr(c.bufferWords) * uintptr(memlayout.WordSize)
}

func (c *chain) contains(i *Interface) bool {
	if i == nil {
		return false
	}
	_, ok := c.set[i]
	return ok
}

// derivesFrom reports whether this chain carries every layer of base's chain.
// Because linearization always merges a member's own bases first, containing
// base's defining interface implies containing its whole chain.
func (c *chain) derivesFrom(base *chain) bool {
	if base == nil {
		return false
	}
	return c.contains(base.self)
}

func (c *chain) movable() bool    { return c.contains(Movable) }
func (c *chain) copyable() bool   { return c.contains(Copyable) }
func (c *chain) comparable() bool { return c.contains(EqualityComparable) }

// abstract returns the chain's shared abstract dispatch table: every entry is
// a fail stub, the tier reached by calls on empty handles.
func (c *chain) abstract() *vtable {
	c.abstractOnce.Do(func() {
		c.abstractVT = newAbstractTable(c)
	})
	return c.abstractVT
}

// chainFor resolves the chain descriptor for the Go interface type I.
func chainFor[I any]() *chain {
	return interfaceFor(reflect.TypeFor[I]()).ch
}
