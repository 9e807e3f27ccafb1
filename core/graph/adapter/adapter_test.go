package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infolab-go/graphpage/core/graph/ridtable"
	"github.com/infolab-go/graphpage/core/storage/slottedpage"
)

func TestEdgeToAdjElem(t *testing.T) {
	table := ridtable.Table[uint64]{{StartVID: 0}, {StartVID: 10}, {StartVID: 25}}

	e := Edge[uint64, slottedpage.None]{Src: 3, Dst: 24}
	elem, err := EdgeToAdjElem[uint32, uint16](e, table)
	require.NoError(t, err)
	require.EqualValues(t, 1, elem.PageID)
	require.EqualValues(t, 14, elem.SlotOffset)

	// Truncation in the slot-offset derivation is an error, not a silent wrap.
	wide := ridtable.Table[uint64]{{StartVID: 0}}
	_, err = EdgeToAdjElem[uint32, uint8](Edge[uint64, slottedpage.None]{Src: 0, Dst: 300}, wide)
	require.Error(t, err)
}

func TestEdgesToAdjElemsPreservesOrder(t *testing.T) {
	table := ridtable.Table[uint64]{{StartVID: 0}, {StartVID: 4}}

	edges := []Edge[uint64, slottedpage.None]{
		{Src: 0, Dst: 5},
		{Src: 0, Dst: 1},
		{Src: 0, Dst: 4},
	}
	elems, err := EdgesToAdjElems[uint32, uint16](edges, table)
	require.NoError(t, err)
	require.Len(t, elems, 3)
	require.EqualValues(t, 1, elems[0].PageID)
	require.EqualValues(t, 1, elems[0].SlotOffset)
	require.EqualValues(t, 0, elems[1].PageID)
	require.EqualValues(t, 1, elems[1].SlotOffset)
	require.EqualValues(t, 1, elems[2].PageID)
	require.EqualValues(t, 0, elems[2].SlotOffset)
}

// Vertices flow through the adapters into a page and come back out intact,
// including the edge payloads resolved against the table.
func TestVertexAndEdgeAdaptersBuildPage(t *testing.T) {
	type weight struct {
		W float32
	}
	l, err := slottedpage.NewLayout[uint64, uint32, uint32, uint16, uint32, uint32, weight, slottedpage.None](512)
	require.NoError(t, err)
	b, err := slottedpage.NewBuilder(l, make([]byte, 512))
	require.NoError(t, err)
	b.Format(slottedpage.FlagSP)

	table, err := ridtable.BuildTable[uint64]([]int{2, 2})
	require.NoError(t, err)

	vertices := []Vertex[uint64, slottedpage.None]{{ID: 0}, {ID: 1}}
	edgeLists := [][]Edge[uint64, weight]{
		{{Src: 0, Dst: 1, Payload: weight{W: 1.5}}, {Src: 0, Dst: 3, Payload: weight{W: 2.5}}},
		{{Src: 1, Dst: 2, Payload: weight{W: 3.5}}},
	}

	for i, v := range vertices {
		elems, err := EdgesToAdjElems[uint32, uint16](edgeLists[i], table)
		require.NoError(t, err)

		ok, capacity := b.Scan()
		require.True(t, ok)
		require.GreaterOrEqual(t, capacity, len(elems))

		idx := VertexToSlot(v, b)
		require.Equal(t, i, idx)
		b.AddListSP(idx, elems)
	}

	require.Equal(t, 2, b.NumSlots())
	s := b.Slot(0)
	require.EqualValues(t, 0, s.VertexID)
	require.EqualValues(t, 2, b.ListSize(s))
	got := b.List(s, 2)
	require.EqualValues(t, 0, got[0].PageID)
	require.EqualValues(t, 1, got[0].SlotOffset)
	require.Equal(t, weight{W: 1.5}, got[0].Payload)
	require.EqualValues(t, 1, got[1].PageID)
	require.EqualValues(t, 1, got[1].SlotOffset)
	require.Equal(t, weight{W: 2.5}, got[1].Payload)

	s = b.Slot(1)
	require.EqualValues(t, 1, s.VertexID)
	require.EqualValues(t, 1, b.ListSize(s))
	require.EqualValues(t, 0, b.List(s, 1)[0].SlotOffset)
	require.EqualValues(t, 1, b.List(s, 1)[0].PageID)
}
