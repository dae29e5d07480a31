// Bulk loader (C7). Grounded on the constructor loop implied by
// original_source/btree.cpp's BTreeIndex constructor: after writing meta
// and an empty leaf root, iterate the relation's tuples via a
// TupleScanner and insert each one.
package btree

import (
	"fmt"

	"btreeidx/internal/heap"
)

// bulkLoad drives InsertEntry over every tuple scanner yields, extracting
// the indexed integer at ix.attrByteOffset from each tuple.
func (ix *Index) bulkLoad(scanner heap.TupleScanner) error {
	if err := scanner.Rewind(); err != nil {
		return fmt.Errorf("btree: bulk load: rewind scanner: %w", err)
	}
	for {
		rid, tuple, ok, err := scanner.Next()
		if err != nil {
			return fmt.Errorf("btree: bulk load: %w", err)
		}
		if !ok {
			break
		}
		key, err := heap.ExtractInt32(tuple, int(ix.attrByteOffset))
		if err != nil {
			return fmt.Errorf("btree: bulk load: extract key at rid %+v: %w", rid, err)
		}
		if err := ix.InsertEntry(key, rid); err != nil {
			return fmt.Errorf("btree: bulk load: insert key %d: %w", key, err)
		}
	}
	return ix.bm.FlushFile()
}
