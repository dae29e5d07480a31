// Package bufmgr is the buffer manager collaborator the B+-tree core
// treats as external infrastructure: pin-counted frame table with LRU
// eviction over a pagefile.File, grounded on DaemonDB's
// storage_engine/bufferpool. A ristretto cache sits behind the frame
// table as a second-chance cache for clean pages evicted under pressure,
// so a page that goes cold and hot again doesn't always cost a disk read.
package bufmgr

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"

	"btreeidx/internal/logging"
	"btreeidx/internal/page"
	"btreeidx/internal/pagefile"
)

// BufMgr is the pin/unpin/alloc/flush collaborator spec.md §6 names as
// BufMgr.allocPage / readPage / unPinPage / flushFile. One BufMgr instance
// backs exactly one pagefile.File (one index file).
type BufMgr struct {
	mu          sync.Mutex
	file        *pagefile.File
	capacity    int
	frames      map[page.Num]*page.Page
	accessOrder []page.Num // LRU order, most recently used at the end

	secondChance *ristretto.Cache[page.Num, []byte]
}

// New creates a buffer manager with room for capacity resident frames,
// backed by file. secondChanceBytes bounds the ristretto second-chance
// cache's cost budget (roughly bytes of evicted page data it may retain).
func New(file *pagefile.File, capacity int, secondChanceBytes int64) (*BufMgr, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[page.Num, []byte]{
		NumCounters: int64(capacity) * 20,
		MaxCost:     secondChanceBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("bufmgr: create second-chance cache: %w", err)
	}
	return &BufMgr{
		file:         file,
		capacity:     capacity,
		frames:       make(map[page.Num]*page.Page, capacity),
		accessOrder:  make([]page.Num, 0, capacity),
		secondChance: cache,
	}, nil
}

// AllocPage obtains a fresh, zero-filled, pinned page from the underlying
// file. The caller owns exactly one pin on the returned page and must
// UnpinPage it (dirty, since a freshly allocated page is always written
// before it is meaningful).
func (bm *BufMgr) AllocPage() (page.Num, *page.Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	pid, err := bm.file.AllocatePage()
	if err != nil {
		return 0, nil, fmt.Errorf("bufmgr: alloc page: %w", err)
	}
	pg := page.New(pid)
	if err := bm.insertFrame(pg); err != nil {
		return 0, nil, err
	}
	pg.PinCount++
	return pid, pg, nil
}

// ReadPage pins and returns the frame for pid, loading it from the
// second-chance cache or the underlying file on a frame-table miss.
func (bm *BufMgr) ReadPage(pid page.Num) (*page.Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if pg, ok := bm.frames[pid]; ok {
		bm.touch(pid)
		pg.PinCount++
		return pg, nil
	}

	pg := page.New(pid)
	if data, ok := bm.secondChance.Get(pid); ok {
		copy(pg.Data, data)
		logging.Log.WithField("page", pid).Debug("bufmgr: second-chance hit")
	} else {
		data, err := bm.file.ReadPage(pid)
		if err != nil {
			return nil, fmt.Errorf("bufmgr: read page %d: %w", pid, err)
		}
		pg.Data = data
	}

	if err := bm.insertFrame(pg); err != nil {
		return nil, err
	}
	pg.PinCount++
	return pg, nil
}

// UnpinPage decrements pid's pin count. dirty marks the page as modified
// if the caller wrote through it; unpinning an already-unpinned page is a
// no-op error the core treats as a bug, matching the teacher's BufferPool.
func (bm *BufMgr) UnpinPage(pid page.Num, dirty bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	pg, ok := bm.frames[pid]
	if !ok {
		return fmt.Errorf("bufmgr: unpin page %d: not resident", pid)
	}
	if pg.PinCount <= 0 {
		return fmt.Errorf("bufmgr: unpin page %d: already at zero pins", pid)
	}
	pg.PinCount--
	if dirty {
		pg.Dirty = true
	}
	return nil
}

// FlushFile writes every dirty resident frame back to disk and syncs the
// file. Frames remain resident after flush.
func (bm *BufMgr) FlushFile() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for pid, pg := range bm.frames {
		if !pg.Dirty {
			continue
		}
		if err := bm.file.WritePage(pid, pg.Data); err != nil {
			return fmt.Errorf("bufmgr: flush page %d: %w", pid, err)
		}
		pg.Dirty = false
	}
	return bm.file.Sync()
}

// NumPages reports how many pages the underlying file currently spans,
// letting a caller distinguish a freshly created file (zero pages) from
// one being reopened.
func (bm *BufMgr) NumPages() page.Num {
	return bm.file.NumPages()
}

// PinCount reports how many pages currently have a nonzero pin count, so
// tests can assert the "zero net pins after any public call" invariant.
func (bm *BufMgr) PinCount() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	n := 0
	for _, pg := range bm.frames {
		if pg.PinCount > 0 {
			n++
		}
	}
	return n
}

// insertFrame adds pg to the frame table, evicting an unpinned LRU frame
// first if at capacity. Caller must hold bm.mu.
func (bm *BufMgr) insertFrame(pg *page.Page) error {
	if _, exists := bm.frames[pg.ID]; exists {
		bm.touch(pg.ID)
		return nil
	}
	if len(bm.frames) >= bm.capacity {
		if err := bm.evictLRU(); err != nil {
			return err
		}
	}
	bm.frames[pg.ID] = pg
	bm.touch(pg.ID)
	return nil
}

// evictLRU removes the least recently used unpinned frame, writing it
// back to disk (and dropping any older second-chance copy) if dirty and
// admitting its bytes into the second-chance cache if clean. Caller must
// hold bm.mu.
func (bm *BufMgr) evictLRU() error {
	for i, pid := range bm.accessOrder {
		pg, exists := bm.frames[pid]
		if !exists {
			bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
			return bm.evictLRU()
		}
		if pg.PinCount > 0 {
			continue
		}
		if pg.Dirty {
			if err := bm.file.WritePage(pid, pg.Data); err != nil {
				return fmt.Errorf("bufmgr: write back page %d during eviction: %w", pid, err)
			}
			bm.secondChance.Del(pid)
		} else {
			cp := make([]byte, len(pg.Data))
			copy(cp, pg.Data)
			bm.secondChance.Set(pid, cp, int64(len(cp)))
		}
		delete(bm.frames, pid)
		bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
		logging.Log.WithFields(logrus.Fields{"page": pid, "wasDirty": pg.Dirty}).Debug("bufmgr: evicted frame")
		return nil
	}
	return fmt.Errorf("bufmgr: all %d frames pinned, cannot evict", len(bm.frames))
}

// touch moves pid to the most-recently-used end of accessOrder. Caller
// must hold bm.mu.
func (bm *BufMgr) touch(pid page.Num) {
	for i, id := range bm.accessOrder {
		if id == pid {
			bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
			break
		}
	}
	bm.accessOrder = append(bm.accessOrder, pid)
}
