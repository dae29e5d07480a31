// Page codec: casts a raw page buffer to a leaf or internal node view and
// derives the fan-out constants from the page size. Grounded on
// DaemonDB's node_to_index_page.go, adapted from that package's
// length-prefixed variable layout to the fixed-array int-key format this
// index restricts itself to (C1 in the component table).
package btree

import (
	"encoding/binary"

	"btreeidx/internal/heap"
	"btreeidx/internal/page"
)

const (
	intSize    = 4 // on-page int / key width
	pageIDSize = 4 // on-page page number width
	ridSize    = 8 // on-page RID width: uint32 page number + uint32 slot number

	leafLevel = -1 // sentinel stored in a leaf's level field
)

// leafFanout returns L, the maximum number of entries a leaf holds at the
// given page size: L = (PAGE_SIZE - sizeof(PageId) - sizeof(int)) /
// (sizeof(int) + sizeof(RID)).
func leafFanout(pageSize int) int {
	return (pageSize - pageIDSize - intSize) / (intSize + ridSize)
}

// internalFanout returns N, the maximum number of separator keys an
// internal node holds at the given page size: N = (PAGE_SIZE - sizeof(int)
// - sizeof(PageId)) / (sizeof(int) + sizeof(PageId)).
func internalFanout(pageSize int) int {
	return (pageSize - intSize - pageIDSize) / (intSize + pageIDSize)
}

// leafNode is the decoded, mutable view of a leaf page: keys[i] pairs with
// rids[i]; rids[i].PageNumber == 0 marks slot i and everything after it as
// unused (invariant 3 in the data model). pg is the pinned frame the node
// was decoded from; encode/write-back always target it directly so a
// fetch-mutate-release cycle never pins the same page twice.
type leafNode struct {
	pid          page.Num
	pg           *page.Page
	keys         []int32
	rids         []heap.RID
	rightSibling page.Num
	l            int
}

// internalNode is the decoded, mutable view of an internal page:
// children[i+1] == 0 marks the end of the valid prefix.
type internalNode struct {
	pid      page.Num
	pg       *page.Page
	level    int32
	keys     []int32
	children []page.Num
	n        int
}

// isLeafPage reports whether pg's first stored int32 is the leaf sentinel,
// without interpreting the rest of the page. The only introspection the
// core is allowed to perform before deciding which decoder to use.
func isLeafPage(pg *page.Page) bool {
	return int32(binary.LittleEndian.Uint32(pg.Data[0:4])) == leafLevel
}

func decodeLeaf(pg *page.Page, l int) *leafNode {
	n := &leafNode{pid: pg.ID, pg: pg, l: l, keys: make([]int32, l), rids: make([]heap.RID, l)}
	off := 4
	for i := 0; i < l; i++ {
		n.keys[i] = int32(binary.LittleEndian.Uint32(pg.Data[off : off+4]))
		off += 4
	}
	for i := 0; i < l; i++ {
		pn := binary.LittleEndian.Uint32(pg.Data[off : off+4])
		sn := binary.LittleEndian.Uint32(pg.Data[off+4 : off+8])
		n.rids[i] = heap.RID{PageNumber: page.Num(pn), SlotNumber: uint16(sn)}
		off += 8
	}
	n.rightSibling = page.Num(binary.LittleEndian.Uint32(pg.Data[off : off+4]))
	return n
}

// encodeLeaf serializes n into its own pinned page (n.pg).
func encodeLeaf(n *leafNode) {
	pg := n.pg
	leafLevelI32 := int32(leafLevel)
	binary.LittleEndian.PutUint32(pg.Data[0:4], uint32(leafLevelI32))
	off := 4
	for i := 0; i < n.l; i++ {
		binary.LittleEndian.PutUint32(pg.Data[off:off+4], uint32(n.keys[i]))
		off += 4
	}
	for i := 0; i < n.l; i++ {
		binary.LittleEndian.PutUint32(pg.Data[off:off+4], uint32(n.rids[i].PageNumber))
		binary.LittleEndian.PutUint32(pg.Data[off+4:off+8], uint32(n.rids[i].SlotNumber))
		off += 8
	}
	binary.LittleEndian.PutUint32(pg.Data[off:off+4], uint32(n.rightSibling))
	pg.Dirty = true
}

func decodeInternal(pg *page.Page, nMax int) *internalNode {
	node := &internalNode{pid: pg.ID, pg: pg, n: nMax, keys: make([]int32, nMax), children: make([]page.Num, nMax+1)}
	node.level = int32(binary.LittleEndian.Uint32(pg.Data[0:4]))
	off := 4
	for i := 0; i < nMax; i++ {
		node.keys[i] = int32(binary.LittleEndian.Uint32(pg.Data[off : off+4]))
		off += 4
	}
	for i := 0; i < nMax+1; i++ {
		node.children[i] = page.Num(binary.LittleEndian.Uint32(pg.Data[off : off+4]))
		off += 4
	}
	return node
}

// encodeInternal serializes n into its own pinned page (n.pg).
func encodeInternal(n *internalNode) {
	pg := n.pg
	binary.LittleEndian.PutUint32(pg.Data[0:4], uint32(n.level))
	off := 4
	for i := 0; i < n.n; i++ {
		binary.LittleEndian.PutUint32(pg.Data[off:off+4], uint32(n.keys[i]))
		off += 4
	}
	for i := 0; i < n.n+1; i++ {
		binary.LittleEndian.PutUint32(pg.Data[off:off+4], uint32(n.children[i]))
		off += 4
	}
	pg.Dirty = true
}

// validCount returns the count of valid entries in n: the prefix with
// a non-zero RID page number.
func (n *leafNode) validCount() int {
	for i, r := range n.rids {
		if r.PageNumber == 0 {
			return i
		}
	}
	return n.l
}

// full reports whether children[N] is occupied.
func (n *internalNode) full() bool {
	return n.children[n.n] != 0
}

// validChildCount returns the number of valid children (dense prefix).
func (n *internalNode) validChildCount() int {
	for i, c := range n.children {
		if c == 0 {
			return i
		}
	}
	return len(n.children)
}
