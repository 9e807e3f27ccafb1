package pagebuf

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

var (
	// ErrNoFreeFrames is returned when every frame in the pool is pinned.
	ErrNoFreeFrames = errors.New("pagebuf: all frames are pinned")
	// ErrDirtyEviction is returned when the only victim candidates are dirty
	// and the pool has no spill function to preserve their contents.
	ErrDirtyEviction = errors.New("pagebuf: dirty victim and no spill function")
	// ErrNotResident is returned for operations on a page the pool does not
	// currently hold.
	ErrNotResident = errors.New("pagebuf: page not resident")
)

// SpillFunc persists an evicted dirty page. Storage I/O stays outside this
// package; the pool only guarantees it never drops dirty bytes silently.
type SpillFunc func(id PageID, data []byte) error

// Pool is a fixed set of preallocated page frames with LRU victim selection.
// It hands out exclusive frames by page id; synchronization across pages is
// the frame latch, synchronization of the pool's own tables is the pool
// mutex.
type Pool struct {
	mu        sync.Mutex
	pageSize  int
	frames    []*Frame
	pageTable map[PageID]int
	freeList  []int
	lruList   *list.List // frame indices, most recent in front

	spill  SpillFunc
	logger *zap.Logger

	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
}

// NewPool preallocates poolSize frames of pageSize bytes. logger may be nil
// for a no-op logger, meter may be nil for no-op metrics, and spill may be
// nil when the caller guarantees dirty pages are flushed before eviction.
func NewPool(poolSize, pageSize int, logger *zap.Logger, meter metric.Meter, spill SpillFunc) (*Pool, error) {
	if poolSize <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("pagebuf: invalid pool geometry %dx%d", poolSize, pageSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	p := &Pool{
		pageSize:  pageSize,
		frames:    make([]*Frame, poolSize),
		pageTable: make(map[PageID]int),
		freeList:  make([]int, 0, poolSize),
		lruList:   list.New(),
		spill:     spill,
		logger:    logger,
	}
	for i := range p.frames {
		p.frames[i] = newFrame(pageSize)
		p.freeList = append(p.freeList, i)
	}

	var err error
	if p.hits, err = meter.Int64Counter("graphpage.pagebuf.hits"); err != nil {
		return nil, err
	}
	if p.misses, err = meter.Int64Counter("graphpage.pagebuf.misses"); err != nil {
		return nil, err
	}
	if p.evictions, err = meter.Int64Counter("graphpage.pagebuf.evictions"); err != nil {
		return nil, err
	}

	logger.Info("page pool initialized",
		zap.Int("pool_size", poolSize),
		zap.Int("page_size", pageSize))
	return p, nil
}

// PageSize returns the size of every buffer the pool hands out.
func (p *Pool) PageSize() int { return p.pageSize }

// Acquire returns the frame holding id, pinning it. A page not yet resident
// gets a zeroed frame, taken from the free list or evicted from the LRU
// tail.
func (p *Pool) Acquire(id PageID) (*Frame, error) {
	if id == InvalidPageID {
		return nil, fmt.Errorf("pagebuf: acquire of invalid page id")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := context.Background()
	if idx, ok := p.pageTable[id]; ok {
		f := p.frames[idx]
		f.Pin()
		if f.lruElement != nil {
			p.lruList.MoveToFront(f.lruElement)
		}
		p.hits.Add(ctx, 1)
		return f, nil
	}
	p.misses.Add(ctx, 1)

	idx, err := p.victimFrame(ctx)
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]
	f.Reset()
	f.id = id
	f.Pin()
	p.pageTable[id] = idx
	f.lruElement = p.lruList.PushFront(idx)
	return f, nil
}

// Release unpins the frame holding id. The frame stays resident until
// eviction needs it.
func (p *Pool) Release(id PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[id]
	if !ok {
		return ErrNotResident
	}
	p.frames[idx].Unpin()
	return nil
}

// Flush spills the page if it is dirty and clears the dirty bit.
func (p *Pool) Flush(id PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[id]
	if !ok {
		return ErrNotResident
	}
	return p.flushFrame(p.frames[idx])
}

// FlushAll spills every dirty resident page.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, idx := range p.pageTable {
		if err := p.flushFrame(p.frames[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) flushFrame(f *Frame) error {
	if !f.dirty {
		return nil
	}
	if p.spill == nil {
		return ErrDirtyEviction
	}
	if err := p.spill(f.id, f.data); err != nil {
		return fmt.Errorf("pagebuf: spill page %d: %w", f.id, err)
	}
	f.dirty = false
	return nil
}

// victimFrame returns a usable frame index: from the free list first, then
// the least recently used unpinned frame, spilling it if dirty. Caller holds
// p.mu.
func (p *Pool) victimFrame(ctx context.Context) (int, error) {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return idx, nil
	}

	for e := p.lruList.Back(); e != nil; e = e.Prev() {
		idx := e.Value.(int)
		f := p.frames[idx]
		if f.pinCount > 0 {
			continue
		}
		if err := p.flushFrame(f); err != nil {
			return 0, err
		}
		p.logger.Debug("evicting page",
			zap.Uint64("page_id", uint64(f.id)),
			zap.Int("frame", idx))
		delete(p.pageTable, f.id)
		p.lruList.Remove(e)
		p.evictions.Add(ctx, 1)
		return idx, nil
	}
	return 0, ErrNoFreeFrames
}
