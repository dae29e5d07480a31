// Internal-node insert and split (C5). Grounded on DaemonDB's
// parent_insert.go / split_internal.go, rewritten against the fixed-array
// layout: a separator key plus a right-child page number instead of the
// teacher's variable-length key/child slices.
package btree

import "btreeidx/internal/page"

// internalEntry pairs a separator key with the child immediately to its
// right, for the merge-sort used by split.
type internalEntry struct {
	key   int32
	child page.Num
}

// internalInsert implements C5's non-split path and defers to
// internalSplit on overflow.
func (ix *Index) internalInsert(nodePid page.Num, sepKey int32, rightChild page.Num) (*splitResult, error) {
	node, err := ix.fetchInternal(nodePid)
	if err != nil {
		return nil, err
	}

	if !node.full() {
		i := 0
		for i < node.n && node.children[i+1] != 0 && node.keys[i] <= sepKey {
			i++
		}
		for j := node.n - 1; j > i; j-- {
			node.keys[j] = node.keys[j-1]
		}
		for j := node.n; j > i+1; j-- {
			node.children[j] = node.children[j-1]
		}
		node.keys[i] = sepKey
		node.children[i+1] = rightChild
		if err := ix.releaseInternal(node, true); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := ix.releaseInternal(node, false); err != nil {
		return nil, err
	}
	return ix.internalSplit(nodePid, sepKey, rightChild)
}

// internalSplit implements C5's split path. The middle key is removed
// from both halves and promoted to the parent (unlike a leaf split, where
// the middle key is copied and remains present in the right half).
func (ix *Index) internalSplit(nodePid page.Num, sepKey int32, rightChild page.Num) (*splitResult, error) {
	node, err := ix.fetchInternal(nodePid)
	if err != nil {
		return nil, err
	}

	n := node.n
	entries := make([]internalEntry, 0, n+1)
	inserted := false
	for i := 0; i < n; i++ {
		if !inserted && sepKey < node.keys[i] {
			entries = append(entries, internalEntry{sepKey, rightChild})
			inserted = true
		}
		entries = append(entries, internalEntry{node.keys[i], node.children[i+1]})
	}
	if !inserted {
		entries = append(entries, internalEntry{sepKey, rightChild})
	}

	mid := n / 2
	midKey := entries[mid].key

	right, err := ix.allocInternal(node.level)
	if err != nil {
		ix.releaseInternal(node, false)
		return nil, err
	}

	// Left node keeps children[0..mid] and keys[0..mid-1]; children[0]
	// (the original leftmost child) is untouched.
	for i := mid; i < n; i++ {
		node.keys[i] = 0
	}
	for i := mid + 1; i <= n; i++ {
		node.children[i] = 0
	}
	for i := 0; i < mid; i++ {
		node.keys[i] = entries[i].key
		node.children[i+1] = entries[i].child
	}

	// Right node receives keys[mid+1..n] and their right children,
	// renumbered to start at 0; its leftmost child is the child that sat
	// to the right of the promoted midKey.
	right.children[0] = entries[mid].child
	for i := mid + 1; i <= n; i++ {
		right.keys[i-mid-1] = entries[i].key
		right.children[i-mid] = entries[i].child
	}

	if err := ix.releaseInternal(node, true); err != nil {
		ix.releaseInternal(right, true)
		return nil, err
	}
	if err := ix.releaseInternal(right, true); err != nil {
		return nil, err
	}

	return &splitResult{midKey: midKey, newRHS: right.pid}, nil
}
