// Package adapter converts user-level graph tuples into the binary element
// types the slotted page stores. Edges resolve their destination to a
// physical (page, slot) location through the record locator; vertices turn
// into slot insertions on a page builder. The conversions are pure and write
// nothing beyond the caller-provided targets.
package adapter

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/infolab-go/graphpage/core/graph/ridtable"
	"github.com/infolab-go/graphpage/core/storage/slottedpage"
)

// Edge is one user-level edge: source and destination vertex ids plus an
// optional flat payload (slottedpage.None when there is none).
type Edge[VID constraints.Unsigned, EP any] struct {
	Src     VID
	Dst     VID
	Payload EP
}

// Vertex is one user-level vertex.
type Vertex[VID constraints.Unsigned, VP any] struct {
	ID      VID
	Payload VP
}

// EdgeToAdjElem resolves e's destination through the range table and returns
// the adjacency element to store. The page id and slot offset types are the
// page configuration's; the slot-offset conversion is checked, so an id
// range too wide for the configured type surfaces here rather than
// corrupting the page.
func EdgeToAdjElem[PID, SO constraints.Unsigned, VID constraints.Unsigned, EP any](e Edge[VID, EP], table ridtable.Table[VID]) (slottedpage.AdjElem[PID, SO, EP], error) {
	pid := ridtable.VidToPid[PID](e.Dst, table)
	so, err := ridtable.SlotOffsetOf[SO](pid, e.Dst, table)
	if err != nil {
		return slottedpage.AdjElem[PID, SO, EP]{}, fmt.Errorf("edge %d->%d: %w", uint64(e.Src), uint64(e.Dst), err)
	}
	return slottedpage.AdjElem[PID, SO, EP]{PageID: pid, SlotOffset: so, Payload: e.Payload}, nil
}

// EdgesToAdjElems converts a batch of edges sharing one source, preserving
// order. The destination slice is allocated once; per-edge failures abort
// the batch.
func EdgesToAdjElems[PID, SO constraints.Unsigned, VID constraints.Unsigned, EP any](edges []Edge[VID, EP], table ridtable.Table[VID]) ([]slottedpage.AdjElem[PID, SO, EP], error) {
	elems := make([]slottedpage.AdjElem[PID, SO, EP], len(edges))
	for i, e := range edges {
		elem, err := EdgeToAdjElem[PID, SO](e, table)
		if err != nil {
			return nil, err
		}
		elems[i] = elem
	}
	return elems, nil
}

// VertexToSlot inserts v as a slot on b and returns the slot index.
func VertexToSlot[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any](v Vertex[VID, VP], b *slottedpage.Builder[VID, PID, RO, SO, LS, OF, EP, VP]) int {
	return b.AddSlot(v.ID, v.Payload)
}

// VertexToSlotExt inserts v as a slot on an extension page.
func VertexToSlotExt[VID, PID, RO, SO, LS, OF constraints.Unsigned, EP, VP any](v Vertex[VID, VP], b *slottedpage.Builder[VID, PID, RO, SO, LS, OF, EP, VP]) int {
	return b.AddSlotExt(v.ID, v.Payload)
}
