// DumpTo restores the tree-inspection tool the distilled spec dropped,
// grounded on DaemonDB's bplus.InspectIndexFileTo: a BFS walk printing
// each level's nodes and, for leaves, each key's RID.
package btree

import (
	"fmt"
	"io"

	"btreeidx/internal/page"
)

// DumpTo writes a human-readable BFS dump of the tree to w: root page
// number, then each level's internal nodes (keys, children) and leaves
// (keys, RIDs, right-sibling link).
func (ix *Index) DumpTo(w io.Writer) error {
	fmt.Fprintf(w, "index %s: root page %d, L=%d, N=%d\n", ix.Name(), ix.root, ix.l, ix.n)

	queue := []page.Num{ix.root}
	level := 0
	for len(queue) > 0 {
		fmt.Fprintf(w, "level %d:\n", level)
		var next []page.Num
		for _, pid := range queue {
			pg, isLeaf, err := ix.fetchAny(pid)
			if err != nil {
				fmt.Fprintf(w, "  [page %d] read error: %v\n", pid, err)
				continue
			}
			if isLeaf {
				leaf := decodeLeaf(pg, ix.l)
				n := leaf.validCount()
				fmt.Fprintf(w, "  [page %d] LEAF n=%d rightSibling=%d\n", pid, n, leaf.rightSibling)
				for i := 0; i < n; i++ {
					fmt.Fprintf(w, "    %d -> {page %d, slot %d}\n", leaf.keys[i], leaf.rids[i].PageNumber, leaf.rids[i].SlotNumber)
				}
			} else {
				node := decodeInternal(pg, ix.n)
				m := node.validChildCount()
				fmt.Fprintf(w, "  [page %d] INTERNAL level=%d keys=%v children=%v\n",
					pid, node.level, node.keys[:m-1], node.children[:m])
				for i := 0; i < m; i++ {
					if node.children[i] != 0 {
						next = append(next, node.children[i])
					}
				}
			}
			if err := ix.bm.UnpinPage(pid, false); err != nil {
				return err
			}
		}
		queue = next
		level++
	}
	return nil
}
