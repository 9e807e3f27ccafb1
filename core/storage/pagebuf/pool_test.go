package pagebuf

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infolab-go/graphpage/core/storage/slottedpage"
)

func setupPool(t *testing.T, poolSize int, spill SpillFunc) *Pool {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	p, err := NewPool(poolSize, 128, logger, nil, spill)
	require.NoError(t, err)
	return p
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := setupPool(t, 2, nil)

	f, err := p.Acquire(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, f.PageID())
	require.EqualValues(t, 1, f.PinCount())
	require.Len(t, f.Data(), 128)

	// A second acquire of the same page hits the same frame.
	f2, err := p.Acquire(0)
	require.NoError(t, err)
	require.Same(t, f, f2)
	require.EqualValues(t, 2, f.PinCount())

	require.NoError(t, p.Release(0))
	require.NoError(t, p.Release(0))
	require.EqualValues(t, 0, f.PinCount())
}

func TestEvictionPrefersUnpinned(t *testing.T) {
	p := setupPool(t, 2, nil)

	f0, err := p.Acquire(0)
	require.NoError(t, err)
	_, err = p.Acquire(1)
	require.NoError(t, err)

	// Both pinned: the pool is exhausted.
	_, err = p.Acquire(2)
	require.ErrorIs(t, err, ErrNoFreeFrames)

	// Releasing page 1 makes it the victim; page 0 stays resident.
	require.NoError(t, p.Release(1))
	f2, err := p.Acquire(2)
	require.NoError(t, err)
	require.EqualValues(t, 2, f2.PageID())

	f0again, err := p.Acquire(0)
	require.NoError(t, err)
	require.Same(t, f0, f0again)
}

func TestDirtyEvictionNeedsSpill(t *testing.T) {
	p := setupPool(t, 1, nil)

	f, err := p.Acquire(0)
	require.NoError(t, err)
	f.Data()[0] = 0xFF
	f.MarkDirty(true)
	require.NoError(t, p.Release(0))

	_, err = p.Acquire(1)
	require.ErrorIs(t, err, ErrDirtyEviction)
}

func TestSpillOnEviction(t *testing.T) {
	spilled := make(map[PageID][]byte)
	spill := func(id PageID, data []byte) error {
		spilled[id] = append([]byte(nil), data...)
		return nil
	}
	p := setupPool(t, 1, spill)

	f, err := p.Acquire(7)
	require.NoError(t, err)
	f.Data()[3] = 0x42
	f.MarkDirty(true)
	require.NoError(t, p.Release(7))

	f2, err := p.Acquire(8)
	require.NoError(t, err)
	require.Contains(t, spilled, PageID(7))
	require.EqualValues(t, 0x42, spilled[7][3])

	// The reused frame comes back zeroed.
	for _, b := range f2.Data() {
		require.Zero(t, b)
	}
}

func TestFlushAll(t *testing.T) {
	spilled := make(map[PageID][]byte)
	spill := func(id PageID, data []byte) error {
		spilled[id] = append([]byte(nil), data...)
		return nil
	}
	p := setupPool(t, 4, spill)

	for id := PageID(0); id < 3; id++ {
		f, err := p.Acquire(id)
		require.NoError(t, err)
		f.Data()[0] = byte(id) + 1
		f.MarkDirty(true)
	}
	require.NoError(t, p.FlushAll())
	require.Len(t, spilled, 3)

	f, err := p.Acquire(1)
	require.NoError(t, err)
	require.False(t, f.IsDirty())
}

// Frames from the pool plug straight into the page builder: the pool owns
// the buffer, the builder interprets it.
func TestFrameBackedPageBuild(t *testing.T) {
	p := setupPool(t, 2, nil)

	l, err := slottedpage.NewLayout[uint32, uint32, uint32, uint16, uint32, uint32, slottedpage.None, slottedpage.None](128)
	require.NoError(t, err)

	f, err := p.Acquire(0)
	require.NoError(t, err)
	f.Lock()
	b, err := slottedpage.NewBuilder(l, f.Data())
	require.NoError(t, err)
	b.Format(slottedpage.FlagSP)
	idx := b.AddSlot(11, slottedpage.None{})
	b.AddListSP(idx, []slottedpage.AdjElem[uint32, uint16, slottedpage.None]{
		{PageID: 0, SlotOffset: 0},
	})
	f.MarkDirty(true)
	f.Unlock()

	f.RLock()
	r, err := slottedpage.NewReader(l, f.Data())
	require.NoError(t, err)
	require.Equal(t, 1, r.NumSlots())
	require.EqualValues(t, 11, r.Slot(0).VertexID)
	f.RUnlock()
}
