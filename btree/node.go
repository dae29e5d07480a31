// Node allocator (C2) and the fetch/release helpers the rest of the
// package uses to move decoded node views to and from pinned pages.
// Grounded on DaemonDB's new_node.go (newNode/writeNode/fetchNode), but
// simplified to fetch-once-decode-once since our node views hold their
// pinned page directly (see codec.go).
package btree

import (
	"fmt"

	"btreeidx/internal/heap"
	"btreeidx/internal/page"
)

// allocLeaf requests a fresh page and initializes it as an empty leaf.
// The page is pinned once on return; the caller must releaseLeaf it.
func (ix *Index) allocLeaf() (*leafNode, error) {
	_, pg, err := ix.bm.AllocPage()
	if err != nil {
		return nil, fmt.Errorf("btree: alloc leaf: %w", err)
	}
	n := &leafNode{pid: pg.ID, pg: pg, l: ix.l, keys: make([]int32, ix.l), rids: make([]heap.RID, ix.l)}
	encodeLeaf(n)
	return n, nil
}

// allocInternal requests a fresh page and initializes it as an empty
// internal node at the given level. The page is pinned once on return.
func (ix *Index) allocInternal(level int32) (*internalNode, error) {
	_, pg, err := ix.bm.AllocPage()
	if err != nil {
		return nil, fmt.Errorf("btree: alloc internal: %w", err)
	}
	n := &internalNode{pid: pg.ID, pg: pg, level: level, n: ix.n, keys: make([]int32, ix.n), children: make([]page.Num, ix.n+1)}
	encodeInternal(n)
	return n, nil
}

// fetchAny pins pid once and reports whether it is a leaf, without
// deciding what to decode it as. Callers use the pinned page directly
// with decodeLeaf/decodeInternal so a single pin serves both the type
// check and the decode (C1's "read the child, inspect its own sentinel"
// discipline, never a second fetch).
func (ix *Index) fetchAny(pid page.Num) (*page.Page, bool, error) {
	pg, err := ix.bm.ReadPage(pid)
	if err != nil {
		return nil, false, fmt.Errorf("btree: fetch page %d: %w", pid, err)
	}
	return pg, isLeafPage(pg), nil
}

// fetchLeaf pins pid and decodes it as a leaf. Caller must releaseLeaf it.
func (ix *Index) fetchLeaf(pid page.Num) (*leafNode, error) {
	pg, err := ix.bm.ReadPage(pid)
	if err != nil {
		return nil, fmt.Errorf("btree: fetch leaf %d: %w", pid, err)
	}
	return decodeLeaf(pg, ix.l), nil
}

// fetchInternal pins pid and decodes it as an internal node. Caller must
// releaseInternal it.
func (ix *Index) fetchInternal(pid page.Num) (*internalNode, error) {
	pg, err := ix.bm.ReadPage(pid)
	if err != nil {
		return nil, fmt.Errorf("btree: fetch internal %d: %w", pid, err)
	}
	return decodeInternal(pg, ix.n), nil
}

// releaseLeaf unpins n's page, re-encoding it first if dirty.
func (ix *Index) releaseLeaf(n *leafNode, dirty bool) error {
	if dirty {
		encodeLeaf(n)
	}
	return ix.bm.UnpinPage(n.pid, dirty)
}

// releaseInternal unpins n's page, re-encoding it first if dirty.
func (ix *Index) releaseInternal(n *internalNode, dirty bool) error {
	if dirty {
		encodeInternal(n)
	}
	return ix.bm.UnpinPage(n.pid, dirty)
}
