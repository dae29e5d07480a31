package heap

import "btreeidx/internal/page"

// RID locates a single tuple: the page holding it and its slot within that
// page's slot directory. This is the record locator the B+-tree stores in
// its leaves, grounded on DaemonDB's types.RowPointer.
type RID struct {
	PageNumber page.Num
	SlotNumber uint16
}
