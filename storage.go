package poly

import (
	"reflect"
	"unsafe"
)

// storageKind is the explicit discriminant of the tagged storage union. All
// transitions rewrite it only after the new contents are fully in place, so a
// cell is never observable in a partially constructed state and a heap box is
// never released twice.
type storageKind uint8

const (
	storageEmpty storageKind = iota
	storageInline
	storageHeap
)

func (k storageKind) String() string {
	switch k {
	case storageInline:
		return "inline"
	case storageHeap:
		return "heap"
	default:
		return "empty"
	}
}

// storage is the owning storage cell beneath a value container: empty, a
// payload placed in the inline buffer, or a payload boxed on the heap. Every
// transition in the package goes through the methods below; nothing else
// mutates the fields.
type storage struct {
	kind storageKind
	vt   *vtable
	ptr  unsafe.Pointer

	// box pins heap payloads (*T) for the collector; nil otherwise.
	box any

	// cells is the inline backing, allocated once per capacity and reused
	// across emplacements. uint64 cells guarantee word alignment for every
	// payload the eligibility rules admit.
	cells []uint64
}

func (s *storage) isEmpty() bool {
	return s.kind == storageEmpty
}

func (s *storage) model(c *chain) model {
	if s.kind == storageEmpty {
		return model{vt: c.abstract()}
	}
	return model{data: s.ptr, vt: s.vt}
}

// reset drops the current contents. The discriminant is rewritten first; the
// inline backing is retained for reuse and the heap box, if any, is left to
// the collector.
func (s *storage) reset() {
	s.kind = storageEmpty
	s.ptr = nil
	s.vt = nil
	s.box = nil
}

func (s *storage) ensureBuffer(c *chain) unsafe.Pointer {
	words := c.bufferWords
	if words < 1 {
		words = 1
	}
	if len(s.cells) < words {
		s.cells = make([]uint64, words)
	}
	return unsafe.Pointer(&s.cells[0])
}

// emplace destroys the current contents and constructs payload in place,
// choosing inline or heap placement from the dispatch table's eligibility
// verdict. A nil payload is a programmer error; erase emptiness with reset.
func (s *storage) emplace(c *chain, payload any) {
	if payload == nil {
		failf("cannot erase a nil payload")
	}
	s.emplaceReflect(c, reflect.ValueOf(payload))
}

func (s *storage) emplaceReflect(c *chain, v reflect.Value) {
	vt := tableFor(c, v.Type())
	s.reset()
	if vt.inline {
		p := s.ensureBuffer(c)
		reflect.NewAt(vt.typ, p).Elem().Set(v)
		s.ptr = p
		s.vt = vt
		s.kind = storageInline
		return
	}
	box := reflect.New(vt.typ)
	box.Elem().Set(v)
	s.box = box.Interface()
	s.ptr = box.UnsafePointer()
	s.vt = vt
	s.kind = storageHeap
}

// moveTo transfers this cell's model into dst under dst's chain, leaving this
// cell empty. A heap model moves by stealing the box outright, keeping its
// placement. An inline model moves by relocating the payload bytes, which
// re-decides placement against the destination buffer; any case where the
// cheap transfer is not provably safe takes this full path.
func (s *storage) moveTo(dst *storage, dc *chain) {
	if s == dst {
		return
	}
	switch s.kind {
	case storageEmpty:
		dst.reset()
	case storageHeap:
		vt := retable(s.vt, dc)
		dst.reset()
		dst.box = s.box
		dst.ptr = s.ptr
		dst.vt = vt
		dst.kind = storageHeap
		s.reset()
	case storageInline:
		vt := retable(s.vt, dc)
		src := s.ptr
		if vt.inline {
			dst.reset()
			p := dst.ensureBuffer(dc)
			memmoveBytes(p, src, vt.layout.Size)
			dst.ptr = p
			dst.vt = vt
			dst.kind = storageInline
		} else {
			box := reflect.New(vt.typ)
			memmoveBytes(box.UnsafePointer(), src, vt.layout.Size)
			dst.reset()
			dst.box = box.Interface()
			dst.ptr = box.UnsafePointer()
			dst.vt = vt
			dst.kind = storageHeap
		}
		s.reset()
	}
}

// copyTo builds an independent model of this cell's payload in dst using the
// payload's copy strategy. The source is read before dst is disturbed, so
// copying a cell over itself is well-defined.
func (s *storage) copyTo(dst *storage, dc *chain) {
	if s.kind == storageEmpty {
		dst.reset()
		return
	}
	v := s.vt.copyFn(s.ptr)
	dst.emplaceReflect(dc, v)
}

// swap exchanges the models of two cells of the same chain. Both-heap swaps
// the boxes directly; one-empty degenerates to a move; every remaining
// combination (at least one inline side) runs a three-way move through a
// temporary cell to avoid destructive overlap.
func (s *storage) swap(o *storage, c *chain) {
	if s == o {
		return
	}
	switch {
	case s.kind == storageEmpty && o.kind == storageEmpty:
	case s.kind == storageHeap && o.kind == storageHeap:
		s.box, o.box = o.box, s.box
		s.ptr, o.ptr = o.ptr, s.ptr
		s.vt, o.vt = o.vt, s.vt
	case s.kind == storageEmpty:
		o.moveTo(s, c)
	case o.kind == storageEmpty:
		s.moveTo(o, c)
	default:
		var tmp storage
		s.moveTo(&tmp, c)
		o.moveTo(s, c)
		tmp.moveTo(o, c)
	}
}

// retable rebinds a model's dispatch table to a destination chain, reusing
// the table when the chain is unchanged. Conversions only run toward base
// chains, whose method set the payload already satisfies.
func retable(vt *vtable, dc *chain) *vtable {
	if vt.ch == dc {
		return vt
	}
	return tableFor(dc, vt.typ)
}

func memmoveBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}
