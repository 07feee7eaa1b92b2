package dom

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, fn)
	}
}

// NodeAt returns the node at the given pre-order position below root
// (root is 0), or nil.
func NodeAt(root *Node, index int) *Node {
	if index < 0 {
		return nil
	}
	var found *Node
	i := 0
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if i == index {
			found = n
			return false
		}
		i++
		return true
	})
	return found
}

// Size returns the number of nodes in the subtree rooted at n.
func Size(n *Node) int {
	count := 0
	Walk(n, func(*Node) bool {
		count++
		return true
	})
	return count
}
