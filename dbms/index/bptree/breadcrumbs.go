package bptree

import "github.com/btree-query-bench/simpledataengine/dbms/index/btpage"

// PagedNode pairs an in-memory node with the page id it belongs to (or will
// belong to, once persisted). Exactly one of Leaf/Internal is non-nil.
type PagedNode struct {
	PageID   uint32
	Leaf     *btpage.LeafNode
	Internal *btpage.InternalNode
}

// IsLeaf reports whether this node is a leaf.
func (p *PagedNode) IsLeaf() bool { return p.Leaf != nil }

// Bytes returns the node's current payload bytes, ready for the pager.
func (p *PagedNode) Bytes() []byte {
	if p.IsLeaf() {
		return p.Leaf.Bytes()
	}
	return p.Internal.Bytes()
}

// Breadcrumbs records the root-to-leaf path taken while searching for a key:
// a stack of internal ancestors (root first) topped, if reached, by a leaf.
// Holding plain pointers to each visited node lets an insert mutate several
// ancestors in place before persisting any of them, without a child ever
// pointing back at its parent.
type Breadcrumbs struct {
	parents []*PagedNode // root-to-leaf order
	leaf    *PagedNode
	hasLeaf bool
}

// Push appends an internal ancestor, or — when pn is a leaf — sets it as the
// terminal node of the path.
func (b *Breadcrumbs) Push(pn *PagedNode) {
	if pn.IsLeaf() {
		b.leaf = pn
		b.hasLeaf = true
		return
	}
	b.parents = append(b.parents, pn)
}

// Leaf returns the path's terminal leaf, if any.
func (b *Breadcrumbs) Leaf() *PagedNode { return b.leaf }

// HasLeaf reports whether a leaf terminates this path.
func (b *Breadcrumbs) HasLeaf() bool { return b.hasLeaf }

// HasParents reports whether the path passed through at least one internal node.
func (b *Breadcrumbs) HasParents() bool { return len(b.parents) > 0 }

// SetLeaf replaces the path's terminal leaf, used after a split sends the
// key being inserted into the newly created sibling instead.
func (b *Breadcrumbs) SetLeaf(pn *PagedNode) {
	b.leaf = pn
	b.hasLeaf = true
}

// GetParent returns the i-th ancestor counting from the bottom of the tree:
// i=0 is the deepest internal node (the leaf's immediate parent). It returns
// nil once i runs past the root.
func (b *Breadcrumbs) GetParent(i int) *PagedNode {
	idx := len(b.parents) - 1 - i
	if idx < 0 {
		return nil
	}
	return b.parents[idx]
}

// LastParent returns the deepest internal ancestor (GetParent(0)), or nil if
// the path never left the root leaf.
func (b *Breadcrumbs) LastParent() *PagedNode { return b.GetParent(0) }
