package heap

import (
	"encoding/binary"
	"fmt"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/page"
)

// HeapFile is a minimal slotted-page tuple store, grounded on DaemonDB's
// HeapFile: tuples are opaque byte slices the caller packs and unpacks,
// located by RID.
type HeapFile struct {
	bm            *bufmgr.BufMgr
	highWaterMark page.Num
}

// NewHeapFile wraps bm as a tuple store. bm must be otherwise unused: every
// page of bm's file is treated as a heap page, and any pages the file
// already holds are picked up as existing tuples.
func NewHeapFile(bm *bufmgr.BufMgr) *HeapFile {
	return &HeapFile{bm: bm, highWaterMark: bm.NumPages()}
}

// InsertTuple appends data as a new tuple and returns its RID.
func (hf *HeapFile) InsertTuple(data []byte) (RID, error) {
	if pid, slot, err := hf.tryInsertIntoLastPage(data); err == nil {
		return RID{PageNumber: pid, SlotNumber: slot}, nil
	}

	pid, pg, err := hf.bm.AllocPage()
	if err != nil {
		return RID{}, fmt.Errorf("heap: alloc page: %w", err)
	}
	InitPage(pg)
	slot, err := InsertRecord(pg, data)
	if err != nil {
		hf.bm.UnpinPage(pid, true)
		return RID{}, fmt.Errorf("heap: insert into fresh page: %w", err)
	}
	if err := hf.bm.UnpinPage(pid, true); err != nil {
		return RID{}, err
	}
	hf.highWaterMark = pid
	return RID{PageNumber: pid, SlotNumber: slot}, nil
}

// tryInsertIntoLastPage attempts to reuse the most recently allocated page
// rather than always allocating a new one; it is a best-effort fast path,
// not a full free-space scan like the teacher's findSuitablePage.
func (hf *HeapFile) tryInsertIntoLastPage(data []byte) (page.Num, uint16, error) {
	last := hf.lastPage()
	if last == 0 {
		return 0, 0, fmt.Errorf("heap: no pages yet")
	}
	pg, err := hf.bm.ReadPage(last)
	if err != nil {
		return 0, 0, err
	}
	if FreeSpace(pg) < len(data)+slotSize {
		hf.bm.UnpinPage(last, false)
		return 0, 0, fmt.Errorf("heap: last page full")
	}
	slot, err := InsertRecord(pg, data)
	if err != nil {
		hf.bm.UnpinPage(last, false)
		return 0, 0, err
	}
	if err := hf.bm.UnpinPage(last, true); err != nil {
		return 0, 0, err
	}
	return last, slot, nil
}

func (hf *HeapFile) lastPage() page.Num {
	// A dedicated tracking field would be the production choice; this
	// module's file layout is simple enough that "highest allocated page"
	// serves. AllocPage always grows monotonically, so PinCount-free reads
	// of page 1..N are safe to attempt.
	return hf.highWaterMark
}

// GetTuple fetches the tuple named by rid.
func (hf *HeapFile) GetTuple(rid RID) ([]byte, error) {
	pg, err := hf.bm.ReadPage(rid.PageNumber)
	if err != nil {
		return nil, fmt.Errorf("heap: fetch page for %+v: %w", rid, err)
	}
	defer hf.bm.UnpinPage(rid.PageNumber, false)
	return GetRecord(pg, rid.SlotNumber)
}

// AllRIDs performs a full scan of pages 1..highWaterMark and returns every
// live RID, in page-then-slot order.
func (hf *HeapFile) AllRIDs() ([]RID, error) {
	var out []RID
	for pn := page.Num(1); pn <= hf.highWaterMark; pn++ {
		pg, err := hf.bm.ReadPage(pn)
		if err != nil {
			return nil, fmt.Errorf("heap: scan page %d: %w", pn, err)
		}
		n := NumSlots(pg)
		for slot := uint16(0); slot < n; slot++ {
			if IsSlotLive(pg, slot) {
				out = append(out, RID{PageNumber: pn, SlotNumber: slot})
			}
		}
		if err := hf.bm.UnpinPage(pn, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExtractInt32 reads a little-endian int32 key out of tuple at byteOffset,
// the record-layout convention the B+-tree's bulk loader and InsertEntry
// callers use to pull the indexed attribute out of a tuple.
func ExtractInt32(tuple []byte, byteOffset int) (int32, error) {
	if byteOffset < 0 || byteOffset+4 > len(tuple) {
		return 0, fmt.Errorf("heap: attribute offset %d out of range for %d-byte tuple", byteOffset, len(tuple))
	}
	return int32(binary.LittleEndian.Uint32(tuple[byteOffset : byteOffset+4])), nil
}
