// Package slottedpage implements the fixed-size binary page format used by
// the graphpage storage engine. A page packs vertex slots and their outgoing
// adjacency lists into one contiguous buffer: adjacency data grows upward
// from the head of the data section while the slot array grows downward from
// its tail, the two cursors (front/rear) converging until the page is full.
//
// Page representation (page size: user defined)
//
//	+-------------------------------------------------------------+
//	|                                                             |
//	|                      Data Section                           |
//	|               size = page size - footer size       +--------+
//	|                                                    | footer |
//	+----------------------------------------------------+--------+
//
//	data section:  | S0 list size | S0 elem #0 | S0 elem #1 | ...
//	               ... | S1 list size | S1 elem #0 | ...
//	               ...            | slot #1 (S1) | slot #0 (S0) |
//	footer:        | reserved (4B) | flags (4B) | front | rear |
//
// A page whose adjacency lists all fit inline is a small page (SP). A list
// that overflows one page is split across a large-page chain: the head page
// (LP_HEAD) stores the total logical element count as its size prefix
// followed by as many elements as fit, and continuation pages (LP_EXTENDED)
// store raw elements with no prefix. Chain linking between the pages is the
// caller's concern; this package only produces the per-page pieces.
//
// All identifier, offset and counter widths, and the optional edge/vertex
// payload types, are generic parameters fixed when a Layout is constructed.
// Payload types must be flat (pointer-free, fixed size, no padding) because
// whole pages move by raw byte copy. Values are stored in host-native byte
// order; nothing here marshals or normalizes endianness.
//
// Accessors perform no bounds checking on the hot path. Building with the
// `pagedebug` tag turns contract violations into panics for development use.
package slottedpage

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// PageFlag is the footer flag bitset. SP and LP_HEAD are mutually exclusive
// by convention; LP_EXTENDED marks continuation pages of an overflow chain.
type PageFlag uint32

const (
	FlagSP         PageFlag = 0x1
	FlagLPHead     PageFlag = 0x2
	FlagLPExtended PageFlag = 0x4
)

// None is the zero-sized marker selecting "no payload" for a slot or
// adjacency element. Its size is zero, so it contributes nothing to the
// on-page layout.
type None struct{}

// Slot describes one vertex: its identity and where in the data section its
// adjacency data begins.
type Slot[VID, RO constraints.Unsigned, VP any] struct {
	VertexID     VID
	RecordOffset RO
	Payload      VP
}

// AdjElem is one adjacency list element (an edge). The destination vertex is
// identified by physical location, not logical id, so a lookup is a pointer
// chase once the record locator has resolved it.
type AdjElem[PID, SO constraints.Unsigned, EP any] struct {
	PageID     PID
	SlotOffset SO
	Payload    EP
}

// Layout carries the geometry derived from one choice of type parameters and
// page size. It is immutable after construction and shared by every Reader
// and Builder over pages of that shape.
//
// Type parameters, in order: vertex id, page id, record offset, slot offset,
// adjacency list size counter, footer offset, edge payload, vertex payload.
type Layout[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any] struct {
	pageSize    int
	dataSize    int
	slotSize    int
	elemSize    int
	listSizeLen int

	flagsOff int
	frontOff int
	rearOff  int

	maxEdgesHead int
	maxEdgesExt  int
}

const footerReservedLen = 4
const footerFlagsLen = 4

// NewLayout validates the type parameters and computes the page geometry.
// Payload types are checked for flatness here, never at runtime: a payload
// must be built only from fixed-width scalars, arrays and padding-free
// structs, so that the on-page bytes of a value are exactly its in-memory
// bytes.
func NewLayout[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any](pageSize int) (*Layout[VID, PID, RO, SO, LS, OF, EP, VP], error) {
	if err := checkFlat(reflect.TypeOf((*EP)(nil)).Elem()); err != nil {
		return nil, fmt.Errorf("edge payload: %w", err)
	}
	if err := checkFlat(reflect.TypeOf((*VP)(nil)).Elem()); err != nil {
		return nil, fmt.Errorf("vertex payload: %w", err)
	}

	var (
		vid VID
		pid PID
		ro  RO
		so  SO
		ls  LS
		of  OF
		ep  EP
		vp  VP
	)
	offLen := int(unsafe.Sizeof(of))
	footerSize := footerReservedLen + footerFlagsLen + 2*offLen

	l := &Layout[VID, PID, RO, SO, LS, OF, EP, VP]{
		pageSize:    pageSize,
		dataSize:    pageSize - footerSize,
		slotSize:    int(unsafe.Sizeof(vid) + unsafe.Sizeof(ro) + unsafe.Sizeof(vp)),
		elemSize:    int(unsafe.Sizeof(pid) + unsafe.Sizeof(so) + unsafe.Sizeof(ep)),
		listSizeLen: int(unsafe.Sizeof(ls)),
	}
	if l.dataSize <= 0 {
		return nil, fmt.Errorf("page size %d does not fit the %d-byte footer", pageSize, footerSize)
	}
	if uint64(l.dataSize) > maxUint(offLen) {
		return nil, fmt.Errorf("offset type %T cannot address a %d-byte data section", of, l.dataSize)
	}
	if uint64(l.dataSize) > maxUint(int(unsafe.Sizeof(ro))) {
		return nil, fmt.Errorf("record offset type %T cannot address a %d-byte data section", ro, l.dataSize)
	}
	if l.dataSize < l.slotSize+l.listSizeLen+l.elemSize {
		return nil, fmt.Errorf("data section of %d bytes cannot hold one slot and one element", l.dataSize)
	}

	l.flagsOff = l.dataSize + footerReservedLen
	l.frontOff = l.flagsOff + footerFlagsLen
	l.rearOff = l.frontOff + offLen
	l.maxEdgesHead = (l.dataSize - l.slotSize - l.listSizeLen) / l.elemSize
	l.maxEdgesExt = (l.dataSize - l.slotSize) / l.elemSize
	return l, nil
}

// PageSize returns the total page size in bytes.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) PageSize() int { return l.pageSize }

// DataSize returns the data section size (page size minus footer).
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) DataSize() int { return l.dataSize }

// SlotSize returns the byte size of one slot.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) SlotSize() int { return l.slotSize }

// ElemSize returns the byte size of one adjacency element.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) ElemSize() int { return l.elemSize }

// ListSizeLen returns the byte width of the adjacency list size prefix.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) ListSizeLen() int { return l.listSizeLen }

// MaxEdgesInHeadPage returns the largest adjacency list a page holding a
// single slot plus size prefix can store inline.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) MaxEdgesInHeadPage() int { return l.maxEdgesHead }

// MaxEdgesInExtPage returns the element capacity of an extension page, which
// carries a slot but no size prefix.
func (l *Layout[VID, PID, RO, SO, LS, OF, EP, VP]) MaxEdgesInExtPage() int { return l.maxEdgesExt }

// asBytes exposes the in-memory representation of v as a byte slice. This is
// the raw-copy primitive behind every page access: values of flat types move
// between the page buffer and typed variables without marshalling.
func asBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func maxUint(nbytes int) uint64 {
	if nbytes >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*nbytes) - 1
}

// checkFlat rejects any type whose values are not trivially copyable as raw
// bytes: anything with indirection, dynamic size, platform-dependent width,
// or struct padding (padding bytes would make page equality depend on stack
// garbage).
func checkFlat(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return fmt.Errorf("type %v has platform-dependent width", t)
	case reflect.Array:
		return checkFlat(t.Elem())
	case reflect.Struct:
		var fields uintptr
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkFlat(f.Type); err != nil {
				return err
			}
			fields += f.Type.Size()
		}
		if fields != t.Size() {
			return fmt.Errorf("type %v has %d padding bytes", t, t.Size()-fields)
		}
		return nil
	default:
		return fmt.Errorf("type %v is not flat (kind %v)", t, t.Kind())
	}
}
