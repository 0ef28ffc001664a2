package mdast

import "iter"

// Fingerprint is the structural hash of a node and its subtree.
//
// Attr covers the node's kind and own attributes, Children covers the ordered
// sequence of child fingerprints, and Node combines the two. Two nodes with
// the same Node value are treated as content-identical.
type Fingerprint struct {
	Attr     uint64
	Children uint64
	Node     uint64
	// Valid is false until the hasher has filled the fingerprint, and again
	// after Invalidate.
	Valid bool
}

// Node is one element of a markdown syntax tree.
type Node struct {
	Kind Kind

	// Attributes. Only the fields that apply to Kind are meaningful.
	Literal     string   // Text, HTMLInline, Code, CodeBlock, HTMLBlock
	Destination string   // Link, Image
	Title       string   // Link, Image
	Info        string   // CodeBlock info string
	Level       int      // Heading level 1-6
	List        ListData // List

	// Tree structure
	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node

	// Hash is filled by the fingerprint hasher.
	Hash Fingerprint

	// Output is the renderer's binding for this node. It is opaque to this
	// package and carried along when the node is relinked.
	Output any
}

// Children returns an iterator over the direct children of n.
// The next sibling is read before yielding, so the yielded node may be
// unlinked by the loop body.
func (n *Node) Children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for c := n.FirstChild; c != nil; {
			next := c.Next
			if !yield(c) {
				return
			}
			c = next
		}
	}
}

// ChildSlice returns a snapshot of the direct children of n.
func (n *Node) ChildSlice() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}

// Unlink detaches n from its parent and siblings. Its own children stay
// attached to it. Unlinking a detached node is a no-op.
func (n *Node) Unlink() {
	if n.Prev != nil {
		n.Prev.Next = n.Next
	} else if n.Parent != nil {
		n.Parent.FirstChild = n.Next
	}
	if n.Next != nil {
		n.Next.Prev = n.Prev
	} else if n.Parent != nil {
		n.Parent.LastChild = n.Prev
	}
	n.Parent = nil
	n.Prev = nil
	n.Next = nil
}

// AppendChild adds child as the last child of n, unlinking it first.
func (n *Node) AppendChild(child *Node) {
	child.Unlink()
	child.Parent = n
	if n.LastChild != nil {
		n.LastChild.Next = child
		child.Prev = n.LastChild
		n.LastChild = child
	} else {
		n.FirstChild = child
		n.LastChild = child
	}
}

// PrependChild adds child as the first child of n, unlinking it first.
func (n *Node) PrependChild(child *Node) {
	child.Unlink()
	child.Parent = n
	if n.FirstChild != nil {
		n.FirstChild.Prev = child
		child.Next = n.FirstChild
		n.FirstChild = child
	} else {
		n.FirstChild = child
		n.LastChild = child
	}
}

// InsertBefore links sibling immediately before n, unlinking it first.
func (n *Node) InsertBefore(sibling *Node) {
	sibling.Unlink()
	sibling.Next = n
	sibling.Prev = n.Prev
	if sibling.Prev != nil {
		sibling.Prev.Next = sibling
	}
	n.Prev = sibling
	sibling.Parent = n.Parent
	if sibling.Parent != nil && sibling.Prev == nil {
		sibling.Parent.FirstChild = sibling
	}
}

// InsertAfter links sibling immediately after n, unlinking it first.
func (n *Node) InsertAfter(sibling *Node) {
	sibling.Unlink()
	sibling.Prev = n
	sibling.Next = n.Next
	if sibling.Next != nil {
		sibling.Next.Prev = sibling
	}
	n.Next = sibling
	sibling.Parent = n.Parent
	if sibling.Parent != nil && sibling.Next == nil {
		sibling.Parent.LastChild = sibling
	}
}

// ReplaceWith puts r in n's position and unlinks n.
// Replacing a node with itself is a no-op.
func (n *Node) ReplaceWith(r *Node) {
	if r == n {
		return
	}
	n.InsertBefore(r)
	n.Unlink()
}

// AdoptChildren replaces the children of n with the children of from,
// leaving from without children. The cost is proportional to the number of
// direct children, not the size of the subtrees.
func (n *Node) AdoptChildren(from *Node) {
	if from == n {
		return
	}
	for c := range n.Children() {
		c.Unlink()
	}
	for c := range from.Children() {
		n.AppendChild(c)
	}
}

// Root returns the top-most ancestor of n.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Invalidate clears the fingerprint of n and all its ancestors.
// Call it after mutating a fingerprinted tree out of band.
func (n *Node) Invalidate() {
	for current := n; current != nil; current = current.Parent {
		current.Hash = Fingerprint{}
	}
}

// Walk visits n and its descendants in pre-order. If fn returns false the
// descendants of that node are skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.Next
		Walk(c, fn)
		c = next
	}
}
