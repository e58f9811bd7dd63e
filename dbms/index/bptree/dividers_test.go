package bptree

import (
	"testing"

	"github.com/btree-query-bench/simpledataengine/dbms/index/btpage"
	"github.com/btree-query-bench/simpledataengine/dbms/pager"
)

func leafWithKeys(t *testing.T, pageID uint32, keys ...uint32) *PagedNode {
	t.Helper()
	leaf := btpage.NewLeaf(pager.NewPayloadBuffer(nil))
	for _, k := range keys {
		leaf.Put(k, []byte{byte(k)})
	}
	return &PagedNode{PageID: pageID, Leaf: leaf}
}

func TestComputeDividersEmptyParent(t *testing.T) {
	// First split ever: L = {1, 2}, R = {9, 10}, parent has no slots yet.
	// The plan inserts both children, dividing at Average(9, 2) = 5.
	parent := &PagedNode{PageID: 7, Internal: btpage.NewInternal(pager.NewPayloadBuffer(nil))}
	existing := leafWithKeys(t, 1, 1, 2)
	sibling := leafWithKeys(t, 2, 9, 10)

	plan := ComputeDividers(parent, existing, sibling)

	if len(plan.Replace) != 0 {
		t.Fatalf("Replace = %v, want none", plan.Replace)
	}
	if len(plan.Insert) != 2 {
		t.Fatalf("Insert has %d actions, want 2", len(plan.Insert))
	}
	if plan.Insert[0].DividerKey != 5 || plan.Insert[0].Child != existing {
		t.Fatalf("Insert[0] = (%d, page %d), want (5, existing)", plan.Insert[0].DividerKey, plan.Insert[0].Child.PageID)
	}
	if plan.Insert[1].DividerKey != 10 || plan.Insert[1].Child != sibling {
		t.Fatalf("Insert[1] = (%d, page %d), want (10, sibling)", plan.Insert[1].DividerKey, plan.Insert[1].Child.PageID)
	}
}

func TestComputeDividersRightmostChild(t *testing.T) {
	// existing is the parent's rightmost child: its divider shrinks to the
	// midpoint and the sibling appends with its own last key.
	parent := &PagedNode{PageID: 7, Internal: btpage.NewInternal(pager.NewPayloadBuffer(nil))}
	parent.Internal.Put(3, 1)
	parent.Internal.Put(20, 2)
	existing := leafWithKeys(t, 2, 11, 12)
	sibling := leafWithKeys(t, 3, 19, 20)

	plan := ComputeDividers(parent, existing, sibling)

	if len(plan.Replace) != 1 || plan.Replace[0].DividerKey != btpage.Average(19, 12) || plan.Replace[0].Child != existing {
		t.Fatalf("Replace = %v, want [(15, existing)]", plan.Replace)
	}
	if len(plan.Insert) != 1 || plan.Insert[0].DividerKey != 20 || plan.Insert[0].Child != sibling {
		t.Fatalf("Insert = %v, want [(20, sibling)]", plan.Insert)
	}
}

func TestComputeDividersInteriorChild(t *testing.T) {
	// Parent [3→p0, 10→p1, 20→p2]; p1 = {4..10} split into p1 = {4,5,6} and
	// p3 = {7,8,9,10}. The sibling inherits p1's old upper bound 10 while
	// p1's divider shrinks to Average(7, 6) = 6, so applying the plan yields
	// [3→p0, 6→p1, 10→p3, 20→p2].
	parent := &PagedNode{PageID: 9, Internal: btpage.NewInternal(pager.NewPayloadBuffer(nil))}
	parent.Internal.Put(3, 0)
	parent.Internal.Put(10, 1)
	parent.Internal.Put(20, 2)
	existing := leafWithKeys(t, 1, 4, 5, 6)
	sibling := leafWithKeys(t, 3, 7, 8, 9, 10)

	plan := ComputeDividers(parent, existing, sibling)

	if len(plan.Replace) != 1 || plan.Replace[0].DividerKey != 6 || plan.Replace[0].Child != existing {
		t.Fatalf("Replace = %v, want [(6, existing)]", plan.Replace)
	}
	if len(plan.Insert) != 1 || plan.Insert[0].DividerKey != 10 || plan.Insert[0].Child != sibling {
		t.Fatalf("Insert = %v, want [(10, sibling)]", plan.Insert)
	}

	for _, a := range plan.Replace {
		parent.Internal.ReplaceDivider(a.Child.Leaf.FirstKey(), a.DividerKey, a.Child.PageID)
	}
	for _, a := range plan.Insert {
		parent.Internal.Put(a.DividerKey, a.Child.PageID)
	}

	want := []struct{ divider, child uint32 }{{3, 0}, {6, 1}, {10, 3}, {20, 2}}
	if parent.Internal.ElementsCount() != len(want) {
		t.Fatalf("parent has %d slots, want %d", parent.Internal.ElementsCount(), len(want))
	}
	for i, w := range want {
		divider, child := parent.Internal.SlotAt(i)
		if divider != w.divider || child != w.child {
			t.Errorf("slot %d = (%d, %d), want (%d, %d)", i, divider, child, w.divider, w.child)
		}
	}
}
