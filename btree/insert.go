// Recursive insert driver and root promotion (C6). Grounded on DaemonDB's
// Insertion/insertIntoParent, adapted to unpin the parent before
// recursing and re-pin only if a split bubbles up, per spec's pinning
// discipline note in §5.
package btree

import (
	"fmt"

	"btreeidx/internal/heap"
	"btreeidx/internal/page"
)

// insertNode implements C6's recursive descent: determine leaf vs
// internal, unpin the probe immediately, then either tail-call
// leafInsert or recurse into the resolved child and fold a bubbled-up
// split into this internal node.
func (ix *Index) insertNode(key int32, rid heap.RID, pid page.Num) (*splitResult, error) {
	pg, isLeaf, err := ix.fetchAny(pid)
	if err != nil {
		return nil, err
	}

	if isLeaf {
		if err := ix.bm.UnpinPage(pid, false); err != nil {
			return nil, err
		}
		return ix.leafInsert(pid, key, rid)
	}

	node := decodeInternal(pg, ix.n)
	if err := ix.bm.UnpinPage(pid, false); err != nil {
		return nil, err
	}

	childPid := node.children[childSlot(node, key)]
	result, err := ix.insertNode(key, rid, childPid)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return ix.internalInsert(pid, result.midKey, result.newRHS)
}

// InsertEntry implements C6's public entry point plus root promotion:
// insert (key, rid) into the tree, and if the root itself split, allocate
// a new internal root and persist it via updateRoot.
func (ix *Index) InsertEntry(key int32, rid heap.RID) error {
	if ix.scan.phase != scanIdle {
		// Non-goal: concurrent insert+scan is unsupported, but an insert
		// mid-scan must not corrupt the pinned scan leaf's bookkeeping.
		return fmt.Errorf("btree: insert during an active scan is unsupported")
	}

	result, err := ix.insertNode(key, rid, ix.root)
	if err != nil {
		return fmt.Errorf("btree: insert entry: %w", err)
	}
	if result == nil {
		return nil
	}

	oldRootLevel, err := ix.rootLevel()
	if err != nil {
		return err
	}
	newLevel := oldRootLevel + 1

	newRoot, err := ix.allocInternal(newLevel)
	if err != nil {
		return fmt.Errorf("btree: allocate new root: %w", err)
	}
	newRoot.keys[0] = result.midKey
	newRoot.children[0] = ix.root
	newRoot.children[1] = result.newRHS
	if err := ix.releaseInternal(newRoot, true); err != nil {
		return err
	}
	return ix.updateRoot(newRoot.pid)
}

// rootLevel reports the current root's level, treating a leaf root as
// level 0 so the promoted root's level is always old+1 (the first
// internal level is 1 once a leaf root first splits).
func (ix *Index) rootLevel() (int32, error) {
	pg, isLeaf, err := ix.fetchAny(ix.root)
	if err != nil {
		return 0, err
	}
	defer ix.bm.UnpinPage(ix.root, false)
	if isLeaf {
		return 0, nil // leaf root promotes to level 1, per §9's redesign note
	}
	node := decodeInternal(pg, ix.n)
	return node.level, nil
}
