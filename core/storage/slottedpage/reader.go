package slottedpage

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Reader provides read-only accessors over a previously built page buffer.
// All reads are stateless byte interpretations, so any number of concurrent
// readers may share a page that is not being mutated.
//
// Accessors trust their inputs: an out-of-range slot index or a corrupt
// record offset is undefined behavior in release builds. Build with the
// `pagedebug` tag to turn these into panics.
type Reader[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any] struct {
	layout *Layout[VID, PID, RO, SO, LS, OF, EP, VP]
	buf    []byte
}

// NewReader wraps buf, which must be exactly one page long. The buffer stays
// owned by the caller (typically a pagebuf frame); the reader never copies
// or frees it.
func NewReader[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any](l *Layout[VID, PID, RO, SO, LS, OF, EP, VP], buf []byte) (*Reader[VID, PID, RO, SO, LS, OF, EP, VP], error) {
	if len(buf) != l.pageSize {
		return nil, fmt.Errorf("buffer is %d bytes, layout wants %d", len(buf), l.pageSize)
	}
	return &Reader[VID, PID, RO, SO, LS, OF, EP, VP]{layout: l, buf: buf}, nil
}

// Layout returns the geometry this reader interprets the buffer with.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Layout() *Layout[VID, PID, RO, SO, LS, OF, EP, VP] {
	return r.layout
}

// Data returns the underlying page buffer, footer included.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Data() []byte { return r.buf }

// Front returns the next free adjacency-data byte index.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Front() OF {
	var v OF
	copy(asBytes(&v), r.buf[r.layout.frontOff:])
	return v
}

// Rear returns the next free slot-array byte index, measured from the start
// of the data section. Slots live in [rear, dataSize).
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Rear() OF {
	var v OF
	copy(asBytes(&v), r.buf[r.layout.rearOff:])
	return v
}

// Flags returns the footer flag bitset.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Flags() PageFlag {
	var f PageFlag
	copy(asBytes(&f), r.buf[r.layout.flagsOff:])
	return f
}

// IsSP reports whether the page is a self-contained small page.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) IsSP() bool {
	return r.Flags()&FlagSP != 0
}

// IsLP reports whether the page belongs to a large-page chain (head or
// extension).
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) IsLP() bool {
	return r.Flags()&(FlagLPHead|FlagLPExtended) != 0
}

// IsLPHead reports whether the page is the head of a large-page chain.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) IsLPHead() bool {
	return r.Flags()&FlagLPHead != 0
}

// IsLPExtended reports whether the page is a continuation page.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) IsLPExtended() bool {
	return r.Flags()&FlagLPExtended != 0
}

// IsEmpty reports whether the page holds no slots and no adjacency data.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) IsEmpty() bool {
	return uint64(r.Front()) == 0 && int(uint64(r.Rear())) == r.layout.dataSize
}

// NumSlots returns the number of slots stored on the page.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) NumSlots() int {
	return (r.layout.dataSize - int(uint64(r.Rear()))) / r.layout.slotSize
}

// Slot returns the slot at index i. Slot 0 sits nearest the footer; higher
// indices extend toward lower addresses.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Slot(i int) Slot[VID, RO, VP] {
	assertf(i >= 0 && i < r.NumSlots(), "slot index %d out of range [0,%d)", i, r.NumSlots())
	off := r.layout.dataSize - r.layout.slotSize*(i+1)
	var s Slot[VID, RO, VP]
	off += copy(asBytes(&s.VertexID), r.buf[off:])
	off += copy(asBytes(&s.RecordOffset), r.buf[off:])
	copy(asBytes(&s.Payload), r.buf[off:])
	return s
}

// ListSize reads the adjacency list size prefix of s. On a small page this
// is the inline element count; on a large-page head it is the total logical
// count spanning the whole chain. Extension pages carry no prefix, so
// calling ListSize on one reads element bytes.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) ListSize(s Slot[VID, RO, VP]) LS {
	off := int(uint64(s.RecordOffset))
	assertf(off+r.layout.listSizeLen <= r.layout.dataSize, "record offset %d out of range", off)
	var n LS
	copy(asBytes(&n), r.buf[off:])
	return n
}

// List decodes n adjacency elements of s, starting just past the size
// prefix. Valid on small pages and large-page heads.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) List(s Slot[VID, RO, VP], n int) []AdjElem[PID, SO, EP] {
	return r.readElems(int(uint64(s.RecordOffset))+r.layout.listSizeLen, n)
}

// ListExt decodes n adjacency elements of s on an extension page, where
// elements start at the record offset directly (no size prefix).
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) ListExt(s Slot[VID, RO, VP], n int) []AdjElem[PID, SO, EP] {
	return r.readElems(int(uint64(s.RecordOffset)), n)
}

func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) readElems(off, n int) []AdjElem[PID, SO, EP] {
	assertf(off >= 0 && off+n*r.layout.elemSize <= r.layout.dataSize,
		"list [%d,%d) out of range", off, off+n*r.layout.elemSize)
	elems := make([]AdjElem[PID, SO, EP], n)
	for i := range elems {
		e := &elems[i]
		off += copy(asBytes(&e.PageID), r.buf[off:])
		off += copy(asBytes(&e.SlotOffset), r.buf[off:])
		off += copy(asBytes(&e.Payload), r.buf[off:])
	}
	return elems
}

// Equal reports whole-buffer byte equality: structural identity of the
// physical page, not semantic graph equality.
func (r *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) Equal(other *Reader[VID, PID, RO, SO, LS, OF, EP, VP]) bool {
	return bytes.Equal(r.buf, other.buf)
}
