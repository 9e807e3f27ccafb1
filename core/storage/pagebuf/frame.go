// Package pagebuf supplies the raw fixed-size page buffers the slottedpage
// core is built over, and owns their lifetime and concurrency control. The
// core never allocates: it interprets and mutates buffers handed out here.
package pagebuf

import (
	"container/list"
	"math"
	"sync"
)

// PageID identifies a page within the pool's keyspace. Zero is a valid page
// id (the record locator numbers pages from zero), so the invalid marker is
// the maximum value.
type PageID uint64

const InvalidPageID PageID = math.MaxUint64

// Frame is one in-memory page buffer plus its bookkeeping: pin count, dirty
// bit, LRU position and a latch. The latch is the physical concurrency
// control for the buffer contents; the single-writer rule for page mutation
// is enforced by taking it exclusively around builder calls.
type Frame struct {
	id       PageID
	data     []byte
	pinCount uint32
	dirty    bool

	lruElement *list.Element

	latch sync.RWMutex
}

func newFrame(size int) *Frame {
	return &Frame{
		id:   InvalidPageID,
		data: make([]byte, size),
	}
}

// Data returns the frame's page buffer. The slice identity is stable for the
// life of the pool; its contents belong to whichever page currently occupies
// the frame.
func (f *Frame) Data() []byte { return f.data }

// PageID returns the id of the page occupying this frame, or InvalidPageID.
func (f *Frame) PageID() PageID { return f.id }

// Pin increments the pin count. A pinned frame is never chosen as an
// eviction victim.
func (f *Frame) Pin() { f.pinCount++ }

// Unpin decrements the pin count if it is positive.
func (f *Frame) Unpin() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// PinCount returns the current pin count.
func (f *Frame) PinCount() uint32 { return f.pinCount }

// MarkDirty flags the frame's contents as modified since the last spill.
func (f *Frame) MarkDirty(dirty bool) { f.dirty = dirty }

// IsDirty reports whether the frame holds unspilled modifications.
func (f *Frame) IsDirty() bool { return f.dirty }

// Reset detaches the frame from its page and zeroes the buffer, so a reused
// frame never leaks a previous page's bytes.
func (f *Frame) Reset() {
	f.id = InvalidPageID
	f.pinCount = 0
	f.dirty = false
	f.lruElement = nil
	clear(f.data)
}

// RLock acquires a shared latch on the frame contents.
func (f *Frame) RLock() { f.latch.RLock() }

// RUnlock releases a shared latch.
func (f *Frame) RUnlock() { f.latch.RUnlock() }

// Lock acquires the exclusive latch. Exactly one writer may mutate a page
// buffer at a time.
func (f *Frame) Lock() { f.latch.Lock() }

// TryLock attempts the exclusive latch without blocking.
func (f *Frame) TryLock() bool { return f.latch.TryLock() }

// Unlock releases the exclusive latch.
func (f *Frame) Unlock() { f.latch.Unlock() }
