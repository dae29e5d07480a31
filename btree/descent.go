package btree

// childSlot implements C3: given an internal node and a key, returns the
// child slot to descend into. Scans i from 0 while children[i+1] != 0 and
// key > keys[i] and i < N; stops at the first zero entry in children[i+1]
// or the first key where key <= keys[i]. A key equal to keys[i] routes
// to children[i], the child left of that separator.
func childSlot(node *internalNode, key int32) int {
	i := 0
	for i < node.n && node.children[i+1] != 0 && key > node.keys[i] {
		i++
	}
	return i
}
