// Scan state machine (C8): position at the first qualifying leaf entry,
// advance, detect end, enforce one-scan-at-a-time. Grounded on DaemonDB's
// iterator.go (SeekGE/Next), rewritten as the explicit Idle/Positioned/
// Completed sum type §9 recommends instead of the source's exception-
// terminated iterator.
package btree

import (
	"fmt"

	"btreeidx/internal/heap"
	"btreeidx/internal/page"
)

// Op is a scan boundary operator.
type Op int

const (
	GT Op = iota
	GTE
	LT
	LTE
)

type scanPhase int

const (
	scanIdle scanPhase = iota
	scanPositioned
	scanCompleted
)

// scanState holds the fields of an in-progress range scan. At most one
// scan is active per index instance (spec's non-goal on concurrent
// scans).
type scanState struct {
	phase   scanPhase
	lowVal  int32
	highVal int32
	lowOp   Op
	highOp  Op

	curLeafPid page.Num
	curLeaf    *page.Page
	nextIdx    int
}

func validLowOp(op Op) bool  { return op == GT || op == GTE }
func validHighOp(op Op) bool { return op == LT || op == LTE }

// satisfiesLow reports whether k satisfies the scan's low bound.
func (s *scanState) satisfiesLow(k int32) bool {
	if s.lowOp == GT {
		return k > s.lowVal
	}
	return k >= s.lowVal
}

// exceedsHigh reports whether k is past the scan's high bound.
func (s *scanState) exceedsHigh(k int32) bool {
	if s.highOp == LT {
		return k >= s.highVal
	}
	return k > s.highVal
}

// descendToLeaf walks from root to the leaf that may contain key, using
// childSlot at each internal level and unpinning each internal node
// before descending into the next (never holds more than one pin at a
// time). Returns the target leaf pinned.
func (ix *Index) descendToLeaf(key int32) (*page.Page, error) {
	pid := ix.root
	for {
		pg, isLeaf, err := ix.fetchAny(pid)
		if err != nil {
			return nil, err
		}
		if isLeaf {
			return pg, nil
		}
		node := decodeInternal(pg, ix.n)
		next := node.children[childSlot(node, key)]
		if err := ix.bm.UnpinPage(pid, false); err != nil {
			return nil, err
		}
		pid = next
	}
}

// StartScan implements C8's start_scan: validates operators and range,
// terminates any prior scan, descends to the first candidate leaf, and
// positions on the first qualifying entry.
func (ix *Index) StartScan(low int32, lowOp Op, high int32, highOp Op) error {
	if !validLowOp(lowOp) || !validHighOp(highOp) {
		return ErrBadOpcodes
	}
	if low > high {
		return ErrBadScanrange
	}
	if ix.scan.phase != scanIdle {
		if err := ix.EndScan(); err != nil {
			return err
		}
	}

	ix.scan = scanState{lowVal: low, highVal: high, lowOp: lowOp, highOp: highOp}

	leaf, err := ix.descendToLeaf(low)
	if err != nil {
		return fmt.Errorf("btree: start scan: %w", err)
	}
	ix.scan.curLeaf = leaf
	ix.scan.curLeafPid = leaf.ID

	for {
		view := decodeLeaf(ix.scan.curLeaf, ix.l)
		n := view.validCount()
		found := -1
		for i := 0; i < n; i++ {
			if ix.scan.satisfiesLow(view.keys[i]) {
				found = i
				break
			}
		}
		if found >= 0 {
			if ix.scan.exceedsHigh(view.keys[found]) {
				ix.bm.UnpinPage(ix.scan.curLeafPid, false)
				ix.scan = scanState{}
				return ErrNoSuchKeyFound
			}
			ix.scan.nextIdx = found
			ix.scan.phase = scanPositioned
			return nil
		}

		if view.rightSibling == 0 {
			ix.bm.UnpinPage(ix.scan.curLeafPid, false)
			ix.scan = scanState{}
			return ErrNoSuchKeyFound
		}
		next := view.rightSibling
		if err := ix.bm.UnpinPage(ix.scan.curLeafPid, false); err != nil {
			return err
		}
		pg, err := ix.bm.ReadPage(next)
		if err != nil {
			return fmt.Errorf("btree: start scan: follow sibling: %w", err)
		}
		ix.scan.curLeaf = pg
		ix.scan.curLeafPid = next
	}
}

// ScanNext implements C8's scan_next: yield the current entry, then
// advance within the leaf or across the sibling link.
func (ix *Index) ScanNext() (heap.RID, error) {
	if ix.scan.phase == scanIdle {
		return heap.RID{}, ErrScanNotInitialized
	}
	if ix.scan.phase == scanCompleted {
		return heap.RID{}, ErrIndexScanCompleted
	}

	view := decodeLeaf(ix.scan.curLeaf, ix.l)
	k := view.keys[ix.scan.nextIdx]
	if ix.scan.exceedsHigh(k) {
		ix.bm.UnpinPage(ix.scan.curLeafPid, false)
		ix.scan.phase = scanCompleted
		ix.scan.curLeaf = nil
		return heap.RID{}, ErrIndexScanCompleted
	}

	out := view.rids[ix.scan.nextIdx]
	ix.scan.nextIdx++

	atEnd := ix.scan.nextIdx == ix.l || view.rids[ix.scan.nextIdx].PageNumber == 0
	if atEnd {
		if view.rightSibling == 0 {
			ix.bm.UnpinPage(ix.scan.curLeafPid, false)
			ix.scan.phase = scanCompleted
			ix.scan.curLeaf = nil
		} else {
			next := view.rightSibling
			if err := ix.bm.UnpinPage(ix.scan.curLeafPid, false); err != nil {
				return heap.RID{}, err
			}
			pg, err := ix.bm.ReadPage(next)
			if err != nil {
				return heap.RID{}, fmt.Errorf("btree: scan next: follow sibling: %w", err)
			}
			ix.scan.curLeaf = pg
			ix.scan.curLeafPid = next
			ix.scan.nextIdx = 0
		}
	}

	return out, nil
}

// EndScan implements C8's end_scan: unpin the current leaf if one is
// still held, and return to Idle.
func (ix *Index) EndScan() error {
	if ix.scan.phase == scanIdle {
		return ErrScanNotInitialized
	}
	if ix.scan.phase == scanPositioned && ix.scan.curLeaf != nil {
		if err := ix.bm.UnpinPage(ix.scan.curLeafPid, false); err != nil {
			return err
		}
	}
	ix.scan = scanState{}
	return nil
}
