package cli

import (
	"fmt"

	"btreeidx/btree"
	"btreeidx/internal/bufmgr"
	"btreeidx/internal/config"
	"btreeidx/internal/heap"
	"btreeidx/internal/pagefile"
)

// openBufMgr opens or creates path and wraps it in a buffer manager sized
// per cfg.
func openBufMgr(path string, cfg *config.Config) (*bufmgr.BufMgr, func() error, error) {
	var pf *pagefile.File
	var err error
	if pagefile.Exists(path) {
		pf, err = pagefile.Open(path)
	} else {
		pf, err = pagefile.Create(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("idxtool: open %s: %w", path, err)
	}

	bm, err := bufmgr.New(pf, cfg.BufferPoolPages, cfg.SecondChanceBytes)
	if err != nil {
		pf.Close()
		return nil, nil, fmt.Errorf("idxtool: create buffer manager: %w", err)
	}
	return bm, pf.Close, nil
}

// openIndex opens or bulk-builds relationName's index over attrOffset,
// scanning heapPath if the index file does not yet exist.
func openIndex(indexPath, relationName string, attrOffset int, heapPath string, cfg *config.Config) (*btree.Index, func() error, error) {
	bm, closeFile, err := openBufMgr(indexPath, cfg)
	if err != nil {
		return nil, nil, err
	}

	var scanner heap.TupleScanner
	if heapPath != "" && bm.NumPages() == 0 {
		heapBm, closeHeap, err := openBufMgr(heapPath, cfg)
		if err != nil {
			closeFile()
			return nil, nil, err
		}
		defer closeHeap()
		scanner = heap.NewSequentialScanner(heap.NewHeapFile(heapBm))
	}

	ix, err := btree.Open(relationName, bm, attrOffset, btree.AttrInt32, cfg.PageSize, scanner)
	if err != nil {
		closeFile()
		return nil, nil, fmt.Errorf("idxtool: open index: %w", err)
	}
	return ix, closeFile, nil
}
