// Package btree is the disk-resident B+-tree index core: node formats,
// recursive top-down insert with split propagation and root promotion,
// and a leaf-linked range-scan state machine. All page I/O is mediated
// through the bufmgr package; the core never touches a pagefile.File
// directly. Grounded throughout on DaemonDB's
// storage_engine/access/indexfile_manager/bplustree package, restructured
// around a fixed-size integer-key layout instead of that package's
// variable-length keys and values.
package btree

import (
	"fmt"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/heap"
	"btreeidx/internal/logging"
	"btreeidx/internal/page"
)

// Index is a single B+-tree index over one integer attribute of one
// relation. It exclusively owns its logical view of the tree; the buffer
// manager is shared infrastructure the caller constructs and owns.
type Index struct {
	bm *bufmgr.BufMgr

	relationName   string
	attrByteOffset int32
	attrType       AttrType

	root page.Num
	l    int // leaf fan-out
	n    int // internal fan-out

	scan scanState
}

// Open implements open_or_create from §6: if the backing file is
// freshly created (zero pages), it allocates meta and an empty root leaf
// and bulk-loads scanner's tuples; otherwise it validates the existing
// meta page against the arguments given here.
func Open(relationName string, bm *bufmgr.BufMgr, attrByteOffset int, attrType AttrType, pageSize int, scanner heap.TupleScanner) (*Index, error) {
	ix := &Index{
		bm:             bm,
		relationName:   relationName,
		attrByteOffset: int32(attrByteOffset),
		attrType:       attrType,
		l:              leafFanout(pageSize),
		n:              internalFanout(pageSize),
	}
	if ix.l < 1 || ix.n < 1 {
		return nil, fmt.Errorf("btree: page size %d too small for even one entry (L=%d, N=%d)", pageSize, ix.l, ix.n)
	}

	if bm.NumPages() == 0 {
		if err := ix.create(scanner); err != nil {
			return nil, err
		}
		return ix, nil
	}

	if err := ix.openExisting(); err != nil {
		return nil, err
	}
	return ix, nil
}

// create allocates meta (page 1) and an empty root leaf (page 2), writes
// meta, and bulk-loads scanner's tuples.
func (ix *Index) create(scanner heap.TupleScanner) error {
	metaPid, metaPg, err := ix.bm.AllocPage()
	if err != nil {
		return fmt.Errorf("btree: allocate meta page: %w", err)
	}
	if metaPid != metaPageNum {
		return fmt.Errorf("btree: expected meta page 1, got %d", metaPid)
	}
	m := &meta{
		relationName:   ix.relationName,
		attrByteOffset: ix.attrByteOffset,
		attrType:       ix.attrType,
		rootPageNum:    initialRoot,
	}
	if err := encodeMeta(metaPg, m); err != nil {
		ix.bm.UnpinPage(metaPid, false)
		return err
	}
	if err := ix.bm.UnpinPage(metaPid, true); err != nil {
		return err
	}

	root, err := ix.allocLeaf()
	if err != nil {
		return fmt.Errorf("btree: allocate initial root leaf: %w", err)
	}
	if root.pid != initialRoot {
		ix.releaseLeaf(root, false)
		return fmt.Errorf("btree: expected initial root page 2, got %d", root.pid)
	}
	if err := ix.releaseLeaf(root, false); err != nil {
		return err
	}
	ix.root = initialRoot

	if scanner == nil {
		return ix.bm.FlushFile()
	}
	return ix.bulkLoad(scanner)
}

// openExisting validates the meta page against the arguments Open was
// called with, per §9's resolution of the source's "overwrite instead of
// validate" ambiguity.
func (ix *Index) openExisting() error {
	m, err := ix.readMeta()
	if err != nil {
		return err
	}
	if m.relationName != ix.relationName || m.attrByteOffset != ix.attrByteOffset || m.attrType != ix.attrType {
		return ErrBadIndexInfo
	}
	ix.root = m.rootPageNum
	return nil
}

// InsertEntry, StartScan, ScanNext, EndScan are defined in insert.go and
// scan.go.

// Close ends any active scan and flushes all dirty pages on a best-effort
// basis: any error is logged, never returned. It does not close the
// underlying file; the caller that opened the pagefile.File closes it.
func (ix *Index) Close() error {
	if ix.scan.phase != scanIdle {
		if err := ix.EndScan(); err != nil {
			logging.Log.WithError(err).Warn("close: end active scan failed")
		}
	}
	if err := ix.bm.FlushFile(); err != nil {
		logging.Log.WithError(err).Warn("close: flush failed")
	}
	return nil
}

// Name returns the index file name convention from §6:
// "{relation_name}.{attr_byte_offset}".
func (ix *Index) Name() string {
	return fmt.Sprintf("%s.%d", ix.relationName, ix.attrByteOffset)
}

// Occupancy reports the current leaf fan-out (L) and internal fan-out (N)
// this index was opened with, restoring the original's leafOccupancy /
// nodeOccupancy introspection dropped from the distilled spec.
func (ix *Index) Occupancy() (leafL, internalN int) {
	return ix.l, ix.n
}
