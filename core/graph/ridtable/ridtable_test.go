package ridtable

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// linearVidToPid is the straightforward front-to-back scan the binary search
// replaces: stop at an exact match, or at the first entry whose start id
// exceeds vid and return the previous index, falling back to the last entry.
func linearVidToPid(vid uint64, table Table[uint64]) uint32 {
	for i := range table {
		if table[i].StartVID == vid {
			return uint32(i)
		}
		if table[i].StartVID > vid {
			if i == 0 {
				return 0
			}
			return uint32(i - 1)
		}
	}
	return uint32(len(table) - 1)
}

func TestVidToPidBoundaries(t *testing.T) {
	table := Table[uint64]{{StartVID: 0}, {StartVID: 10}, {StartVID: 25}}

	tests := []struct {
		vid  uint64
		want uint32
	}{
		{vid: 0, want: 0},
		{vid: 5, want: 0},
		{vid: 9, want: 0},
		{vid: 10, want: 1},
		{vid: 24, want: 1},
		{vid: 25, want: 2},
		{vid: 100, want: 2},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, VidToPid[uint32](tc.vid, table), "vid %d", tc.vid)
	}
}

func TestVidToPidMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		counts := make([]int, 1+rng.Intn(40))
		for i := range counts {
			counts[i] = 1 + rng.Intn(100)
		}
		table, err := BuildTable[uint64](counts)
		require.NoError(t, err)

		last := uint64(table[len(table)-1].StartVID) + uint64(counts[len(counts)-1])
		for vid := uint64(0); vid < last+10; vid++ {
			require.Equal(t, linearVidToPid(vid, table), VidToPid[uint32](vid, table),
				"vid %d, trial %d", vid, trial)
		}
	}
}

func TestBuildTable(t *testing.T) {
	table, err := BuildTable[uint32]([]int{4, 2, 10})
	require.NoError(t, err)
	require.Equal(t, Table[uint32]{{StartVID: 0}, {StartVID: 4}, {StartVID: 6}}, table)

	_, err = BuildTable[uint32]([]int{4, 0})
	require.Error(t, err, "empty pages are invalid")

	// Start ids must fit the vertex id type.
	_, err = BuildTable[uint8]([]int{200, 100, 50})
	require.Error(t, err)
}

func TestSlotOffsetOf(t *testing.T) {
	table := Table[uint64]{{StartVID: 0}, {StartVID: 1000}}

	off, err := SlotOffsetOf[uint16, uint32](1, uint64(1003), table)
	require.NoError(t, err)
	require.EqualValues(t, 3, off)

	// A narrow slot-offset type must fail loudly instead of truncating.
	_, err = SlotOffsetOf[uint8, uint32](0, uint64(999), table)
	require.Error(t, err)

	// A vid below the page's range is a caller error, not a wraparound.
	_, err = SlotOffsetOf[uint16, uint32](1, uint64(5), table)
	require.Error(t, err)
}
