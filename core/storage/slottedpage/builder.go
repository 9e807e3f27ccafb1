package slottedpage

import (
	"golang.org/x/exp/constraints"
)

// Builder adds mutating operations on top of Reader. A page is built by a
// strict, caller-ordered sequence of calls: front and rear move monotonically
// toward each other and are never retracted except by Clear. There is no
// internal state machine; correctness depends entirely on call ordering.
//
// The sequence for a small page is, per vertex and in the same relative
// order: AddSlot, then AddListSP for that slot. Front is a cumulative cursor,
// so interleaving slot/list calls out of order corrupts the regions reserved
// for later slots. Large-page chains use AddSlot + AddListLPHead on the head
// and AddSlotExt + AddListLPExt on each continuation page.
//
// Exactly one goroutine may mutate a page at a time; the pagebuf frame latch
// enforces this for pool-owned buffers. Capacity must be checked with Scan or
// ScanExt before inserting: that is the only runtime-checked error condition.
type Builder[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any] struct {
	Reader[VID, PID, RO, SO, LS, OF, EP, VP]
}

// NewBuilder wraps buf for mutation. It does not initialize the footer; call
// Format first when buf is a fresh buffer from the allocator.
func NewBuilder[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any](l *Layout[VID, PID, RO, SO, LS, OF, EP, VP], buf []byte) (*Builder[VID, PID, RO, SO, LS, OF, EP, VP], error) {
	r, err := NewReader(l, buf)
	if err != nil {
		return nil, err
	}
	return &Builder[VID, PID, RO, SO, LS, OF, EP, VP]{Reader: *r}, nil
}

// Format zeroes the whole page and writes an empty footer with the given
// flags: front=0, rear=data section size.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) Format(flags PageFlag) {
	clear(b.buf)
	b.setRear(b.layout.dataSize)
	b.SetFlags(flags)
}

// Clear zeroes the data section and resets front and rear, returning the
// page to the empty state. Flags are left untouched.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) Clear() {
	clear(b.buf[:b.layout.dataSize])
	b.setFront(0)
	b.setRear(b.layout.dataSize)
}

// SetFlags overwrites the footer flag bitset.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) SetFlags(f PageFlag) {
	copy(b.buf[b.layout.flagsOff:], asBytes(&f))
}

// Scan reports whether the page can still take a new slot+list pair and, if
// so, the maximum number of adjacency elements that pair could hold. Callers
// use this to decide whether a vertex fits inline or must start a large-page
// chain; the bin-packing policy itself lives outside this package.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) Scan() (bool, int) {
	free := int(uint64(b.Rear())) - int(uint64(b.Front()))
	need := b.layout.slotSize + b.layout.listSizeLen
	if free < need {
		return false, 0
	}
	return true, (free - need) / b.layout.elemSize
}

// ScanExt is Scan for extension pages, which reserve no size prefix.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) ScanExt() (bool, int) {
	free := int(uint64(b.Rear())) - int(uint64(b.Front()))
	if free < b.layout.slotSize {
		return false, 0
	}
	return true, (free - b.layout.slotSize) / b.layout.elemSize
}

// AddSlot appends a slot whose record offset is the current front, reserves
// size-prefix space, and returns the new slot's index.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddSlot(id VID, payload VP) int {
	front := int(uint64(b.Front()))
	rear := int(uint64(b.Rear())) - b.layout.slotSize
	assertf(front+b.layout.listSizeLen <= rear, "AddSlot on full page (front=%d rear=%d)", front, rear)
	s := Slot[VID, RO, VP]{VertexID: id, RecordOffset: RO(uint64(front)), Payload: payload}
	b.writeSlot(rear, &s)
	b.setRear(rear)
	b.setFront(front + b.layout.listSizeLen)
	return b.NumSlots() - 1
}

// AddSlotExt appends a slot on an extension page. No size-prefix space is
// reserved: continuation pages never store one.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddSlotExt(id VID, payload VP) int {
	front := int(uint64(b.Front()))
	rear := int(uint64(b.Rear())) - b.layout.slotSize
	assertf(front <= rear, "AddSlotExt on full page (front=%d rear=%d)", front, rear)
	s := Slot[VID, RO, VP]{VertexID: id, RecordOffset: RO(uint64(front)), Payload: payload}
	b.writeSlot(rear, &s)
	b.setRear(rear)
	return b.NumSlots() - 1
}

// AddDummySlot performs AddSlot's cursor bookkeeping without writing any slot
// bytes. Used to pre-plan a page layout before committing data.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddDummySlot() int {
	b.setRear(int(uint64(b.Rear())) - b.layout.slotSize)
	b.setFront(int(uint64(b.Front())) + b.layout.listSizeLen)
	return b.NumSlots() - 1
}

// AddDummySlotExt performs AddSlotExt's cursor bookkeeping only.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddDummySlotExt() int {
	b.setRear(int(uint64(b.Rear())) - b.layout.slotSize)
	return b.NumSlots() - 1
}

// AddListSP writes the size prefix and elements of slot slotIdx's adjacency
// list. Must be called right after the matching AddSlot, in the same relative
// order the slots were added.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddListSP(slotIdx int, elems []AdjElem[PID, SO, EP]) {
	s := b.Slot(slotIdx)
	off := int(uint64(s.RecordOffset))
	b.writeListSize(off, len(elems))
	b.writeElems(off+b.layout.listSizeLen, elems)
	b.advanceFront(len(elems))
}

// AddListLPHead writes a large-page head list into slot 0: the prefix holds
// totalSize, the full logical element count across the whole chain, while
// elems carries only the elements that fit on this page.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddListLPHead(totalSize int, elems []AdjElem[PID, SO, EP]) {
	s := b.Slot(0)
	off := int(uint64(s.RecordOffset))
	b.writeListSize(off, totalSize)
	b.writeElems(off+b.layout.listSizeLen, elems)
	b.advanceFront(len(elems))
}

// AddListLPExt writes raw continuation elements into slot 0 of an extension
// page. No size prefix: the total was already recorded in the chain's head.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddListLPExt(elems []AdjElem[PID, SO, EP]) {
	s := b.Slot(0)
	b.writeElems(int(uint64(s.RecordOffset)), elems)
	b.advanceFront(len(elems))
}

// AddDummyListSP records the size prefix and advances front past n elements
// without copying element bytes.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddDummyListSP(slotIdx, n int) {
	s := b.Slot(slotIdx)
	b.writeListSize(int(uint64(s.RecordOffset)), n)
	b.advanceFront(n)
}

// AddDummyListLPHead records the total size prefix and advances front past
// the nInPage elements this page would hold.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddDummyListLPHead(totalSize, nInPage int) {
	s := b.Slot(0)
	b.writeListSize(int(uint64(s.RecordOffset)), totalSize)
	b.advanceFront(nInPage)
}

// AddDummyListLPExt advances front past nInPage continuation elements.
func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) AddDummyListLPExt(nInPage int) {
	b.advanceFront(nInPage)
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) setFront(v int) {
	o := OF(uint64(v))
	copy(b.buf[b.layout.frontOff:b.layout.rearOff], asBytes(&o))
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) setRear(v int) {
	o := OF(uint64(v))
	copy(b.buf[b.layout.rearOff:], asBytes(&o))
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) advanceFront(n int) {
	front := int(uint64(b.Front())) + n*b.layout.elemSize
	assertf(front <= int(uint64(b.Rear())), "front %d crossed rear %d", front, uint64(b.Rear()))
	b.setFront(front)
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) writeSlot(off int, s *Slot[VID, RO, VP]) {
	off += copy(b.buf[off:], asBytes(&s.VertexID))
	off += copy(b.buf[off:], asBytes(&s.RecordOffset))
	copy(b.buf[off:], asBytes(&s.Payload))
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) writeListSize(off, n int) {
	v := LS(uint64(n))
	copy(b.buf[off:], asBytes(&v))
}

func (b *Builder[VID, PID, RO, SO, LS, OF, EP, VP]) writeElems(off int, elems []AdjElem[PID, SO, EP]) {
	for i := range elems {
		e := &elems[i]
		off += copy(b.buf[off:], asBytes(&e.PageID))
		off += copy(b.buf[off:], asBytes(&e.SlotOffset))
		off += copy(b.buf[off:], asBytes(&e.Payload))
	}
}
