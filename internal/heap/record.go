// Slotted-page record layout, grounded on DaemonDB's heap_page.go: records
// grow forward from the header, the slot directory grows backward from the
// end of the page, and a tombstoned slot is zeroed rather than compacted.
package heap

import (
	"encoding/binary"
	"fmt"

	"btreeidx/internal/page"
)

const (
	headerSize = 8 // RecordEndPtr uint16, SlotRegionEnd uint16, NumSlots uint16, reserved uint16
	slotSize   = 4 // Offset uint16, Length uint16
)

// InitPage stamps a freshly allocated page as an empty heap page.
func InitPage(pg *page.Page) {
	binary.LittleEndian.PutUint16(pg.Data[0:2], headerSize) // RecordEndPtr
	binary.LittleEndian.PutUint16(pg.Data[2:4], uint16(len(pg.Data)))
	binary.LittleEndian.PutUint16(pg.Data[4:6], 0) // NumSlots
	pg.Dirty = true
}

func recordEndPtr(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[0:2]) }
func setRecordEndPtr(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[0:2], v)
}
func slotRegionEnd(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[2:4]) }
func setSlotRegionEnd(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[2:4], v)
}
func numSlots(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[4:6]) }
func setNumSlots(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[4:6], v)
}

func slotAt(pg *page.Page, idx uint16) (offset, length uint16) {
	base := len(pg.Data) - int(idx+1)*slotSize
	return binary.LittleEndian.Uint16(pg.Data[base : base+2]),
		binary.LittleEndian.Uint16(pg.Data[base+2 : base+4])
}

func setSlotAt(pg *page.Page, idx uint16, offset, length uint16) {
	base := len(pg.Data) - int(idx+1)*slotSize
	binary.LittleEndian.PutUint16(pg.Data[base:base+2], offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:base+4], length)
}

// FreeSpace reports how many bytes remain between the record area and the
// slot directory.
func FreeSpace(pg *page.Page) int {
	return int(slotRegionEnd(pg)) - int(recordEndPtr(pg))
}

// InsertRecord appends data to the record area and allocates a new slot
// for it, reusing a tombstoned slot when one is free. It returns the slot
// index the caller should record in the RID.
func InsertRecord(pg *page.Page, data []byte) (uint16, error) {
	need := len(data) + slotSize
	if FreeSpace(pg) < need {
		return 0, fmt.Errorf("heap: insufficient space: need %d, have %d", need, FreeSpace(pg))
	}

	// Reuse a tombstoned slot if one exists, to avoid the slot directory
	// growing unboundedly under a churn of inserts and deletes.
	n := numSlots(pg)
	for i := uint16(0); i < n; i++ {
		if off, ln := slotAt(pg, i); off == 0 && ln == 0 {
			off := recordEndPtr(pg)
			copy(pg.Data[off:int(off)+len(data)], data)
			setRecordEndPtr(pg, off+uint16(len(data)))
			setSlotAt(pg, i, off, uint16(len(data)))
			pg.Dirty = true
			return i, nil
		}
	}

	off := recordEndPtr(pg)
	copy(pg.Data[off:int(off)+len(data)], data)
	setRecordEndPtr(pg, off+uint16(len(data)))

	newRegionEnd := slotRegionEnd(pg) - slotSize
	setSlotRegionEnd(pg, newRegionEnd)
	setSlotAt(pg, n, off, uint16(len(data)))
	setNumSlots(pg, n+1)
	pg.Dirty = true
	return n, nil
}

// GetRecord returns the bytes stored at slotIdx, or an error if the slot is
// out of range or tombstoned.
func GetRecord(pg *page.Page, slotIdx uint16) ([]byte, error) {
	if slotIdx >= numSlots(pg) {
		return nil, fmt.Errorf("heap: slot %d out of range (numSlots=%d)", slotIdx, numSlots(pg))
	}
	off, ln := slotAt(pg, slotIdx)
	if off == 0 && ln == 0 {
		return nil, fmt.Errorf("heap: slot %d is tombstoned", slotIdx)
	}
	out := make([]byte, ln)
	copy(out, pg.Data[off:int(off)+int(ln)])
	return out, nil
}

// DeleteRecord tombstones slotIdx by zeroing its directory entry. The
// record bytes themselves are left in place and never reclaimed; when
// InsertRecord reuses the slot, it points it at newly appended bytes.
func DeleteRecord(pg *page.Page, slotIdx uint16) error {
	if slotIdx >= numSlots(pg) {
		return fmt.Errorf("heap: slot %d out of range (numSlots=%d)", slotIdx, numSlots(pg))
	}
	setSlotAt(pg, slotIdx, 0, 0)
	pg.Dirty = true
	return nil
}

// IsSlotLive reports whether slotIdx names a non-tombstoned record.
func IsSlotLive(pg *page.Page, slotIdx uint16) bool {
	if slotIdx >= numSlots(pg) {
		return false
	}
	off, ln := slotAt(pg, slotIdx)
	return !(off == 0 && ln == 0)
}

// NumSlots returns the total number of slot directory entries, live and
// tombstoned.
func NumSlots(pg *page.Page) uint16 { return numSlots(pg) }
