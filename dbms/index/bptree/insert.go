package bptree

import (
	"context"

	"github.com/btree-query-bench/simpledataengine/dbms/index/btpage"
	"github.com/btree-query-bench/simpledataengine/dbms/pager"
	"github.com/btree-query-bench/simpledataengine/engineerr"
)

// Insert places (key, value) into the tree.
//
// The pipeline: find the leaf for key; if it already holds key, fail
// with an Unsupported error (duplicate insert is unimplemented); if the leaf
// has no room, split it and propagate a divider up to its parent
// (allocating a new root if the split reached the top); place the value in
// whichever leaf now owns key's range; and, if that leaf's maximum key just
// grew and it has ancestors, walk back up widening every ancestor whose
// rightmost child is on the growth path.
//
// ctx is checked at entry and before each node read on the way down to the
// leaf; from the leaf onward the insert runs to completion without
// consulting ctx again.
func (h *Handle) Insert(ctx context.Context, key uint32, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !btpage.CanFitIntoEmpty(value, pager.PageSize, pager.HeaderBytes) {
		return engineerr.New(engineerr.Unsupported, "value of %d bytes exceeds the empty-leaf capacity", len(value))
	}

	bc, err := h.findLeafFor(ctx, key)
	if err != nil {
		return err
	}

	leaf := bc.Leaf()
	if _, found := leaf.Leaf.FindPosition(key); found {
		return engineerr.New(engineerr.Unsupported, "duplicate key %d", key)
	}

	if !leaf.Leaf.CanFit(value) {
		leaf, err = h.splitAndPropagate(bc, leaf, key)
		if err != nil {
			return err
		}
	}

	mustActualizeHighKey := leaf.Leaf.GtHighKey(key) && bc.HasParents()

	leaf.Leaf.Put(key, value)
	if err := h.persist(leaf); err != nil {
		return err
	}

	if mustActualizeHighKey {
		return h.propagateHighKeyChange(leaf.PageID, leaf.Leaf.LastKey(), bc)
	}
	return nil
}

// splitAndPropagate implements insert pipeline step 4: split leaf, update
// (or create) its parent with the resulting dividers, and resolve which of
// the two leaves now owns key. It returns the leaf that should receive the
// pending Put.
func (h *Handle) splitAndPropagate(bc *Breadcrumbs, leaf *PagedNode, key uint32) (*PagedNode, error) {
	newBuf := pager.NewPayloadBuffer(nil)
	newLeafNode := leaf.Leaf.Split(newBuf)

	newPageID, err := h.pager.SavePage(newLeafNode.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	newLeaf := &PagedNode{PageID: newPageID, Leaf: newLeafNode}

	if err := h.persist(leaf); err != nil {
		return nil, err
	}

	parent := bc.LastParent()
	parentFresh := parent == nil
	if parentFresh {
		parent = &PagedNode{Internal: btpage.NewInternal(pager.NewPayloadBuffer(nil))}
	}

	plan := ComputeDividers(parent, leaf, newLeaf)
	for _, a := range plan.Replace {
		parent.Internal.ReplaceDivider(a.Child.Leaf.FirstKey(), a.DividerKey, a.Child.PageID)
	}
	for _, a := range plan.Insert {
		parent.Internal.Put(a.DividerKey, a.Child.PageID)
	}

	if parentFresh {
		parentPageID, err := h.pager.SavePage(parent.Internal.Bytes(), nil)
		if err != nil {
			return nil, err
		}
		parent.PageID = parentPageID
		if err := h.pager.SetRoot(parentPageID); err != nil {
			return nil, err
		}
		bc.Push(parent)
	} else {
		if err := h.persist(parent); err != nil {
			return nil, err
		}
	}

	if childPageID := parent.Internal.ChildPageIDForKey(key); childPageID != leaf.PageID {
		bc.SetLeaf(newLeaf)
		return newLeaf, nil
	}
	return leaf, nil
}

// propagateHighKeyChange widens every ancestor whose rightmost child lies on
// the chain from leafPageID up to the root, stopping at the first ancestor
// whose rightmost child is NOT on that chain (its own high key is already
// correct, and nothing above it needs to change either).
func (h *Handle) propagateHighKeyChange(leafPageID uint32, newHighKey uint32, bc *Breadcrumbs) error {
	if !bc.HasParents() {
		return nil
	}
	childPageID := leafPageID
	for i := 0; ; i++ {
		parent := bc.GetParent(i)
		if parent == nil {
			return nil
		}
		if !parent.Internal.IsRightmostChild(childPageID) {
			return nil
		}
		oldDivider := parent.Internal.LastDivider()
		rightmostChildPageID := parent.Internal.LastChildPageID()
		parent.Internal.ReplaceDivider(oldDivider, newHighKey, rightmostChildPageID)
		childPageID = parent.PageID

		if err := h.persist(parent); err != nil {
			return err
		}
	}
}
