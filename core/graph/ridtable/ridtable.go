// Package ridtable implements the record locator: the mapping from a vertex
// id to its physical (page, slot) location through a sorted range table.
//
// The table is produced by the catalog side of the engine and consumed
// read-only here. Entry i covers the dense, consecutive vertex-id range
// starting at its StartVID, and the entry index is the page id, so locating
// a vertex is a range lookup plus a subtraction.
package ridtable

import (
	"fmt"
	"math"
	"sort"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Entry assigns one page the contiguous vertex-id range beginning at
// StartVID. Entries must be sorted ascending and the table index is the page
// id.
type Entry[VID constraints.Unsigned] struct {
	StartVID VID
}

// Table is the sorted range table. It is read-only from this package's point
// of view; BuildTable is the one producer.
type Table[VID constraints.Unsigned] []Entry[VID]

// BuildTable derives the range table from a per-page vertex count sequence:
// page i holds counts[i] vertices, ids assigned densely starting where the
// previous page stopped. Every count must be positive.
func BuildTable[VID constraints.Unsigned](counts []int) (Table[VID], error) {
	table := make(Table[VID], 0, len(counts))
	var next uint64
	for i, n := range counts {
		if n <= 0 {
			return nil, fmt.Errorf("page %d has non-positive vertex count %d", i, n)
		}
		if next > maxOf[VID]() {
			return nil, fmt.Errorf("page %d start id %d overflows the vertex id type", i, next)
		}
		table = append(table, Entry[VID]{StartVID: VID(next)})
		next += uint64(n)
	}
	return table, nil
}

// VidToPid returns the id of the page owning vid: the greatest index i with
// table[i].StartVID <= vid, falling back to the last entry when vid exceeds
// every start id. The table is sorted, so this is a binary search; the
// boundary semantics are identical to a front-to-back scan that stops at the
// first entry whose start id exceeds vid.
//
// Callers must not pass a vid below table[0].StartVID; the result clamps to
// page 0 in that case.
func VidToPid[PID, VID constraints.Unsigned](vid VID, table Table[VID]) PID {
	// First index whose start id exceeds vid; the owner is the entry before.
	i := sort.Search(len(table), func(i int) bool {
		return table[i].StartVID > vid
	})
	if i == 0 {
		return 0
	}
	return PID(uint64(i - 1))
}

// SlotOffsetOf converts vid to its slot offset within page pid. Vertex ids
// are assigned densely from the page's start id, so the offset is a plain
// subtraction; unlike the id types the slot-offset type may be narrow, and a
// difference that does not fit is reported instead of silently truncated.
func SlotOffsetOf[SO, PID, VID constraints.Unsigned](pid PID, vid VID, table Table[VID]) (SO, error) {
	start := table[pid].StartVID
	if vid < start {
		return 0, fmt.Errorf("vertex %d precedes page %d start id %d", uint64(vid), uint64(pid), uint64(start))
	}
	diff := uint64(vid) - uint64(start)
	if diff > maxOf[SO]() {
		return 0, fmt.Errorf("slot offset %d for vertex %d overflows the slot offset type", diff, uint64(vid))
	}
	return SO(diff), nil
}

func maxOf[T constraints.Unsigned]() uint64 {
	var v T
	if unsafe.Sizeof(v) >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*unsafe.Sizeof(v)) - 1
}
