package bptree

import "github.com/btree-query-bench/simpledataengine/dbms/index/btpage"

// DividerAction is one (divider key, child) pair to apply to a parent.
type DividerAction struct {
	DividerKey uint32
	Child      *PagedNode
}

// DividerPlan is the set of replace/insert actions a leaf split produces on
// its parent. Replace entries overwrite an existing slot's divider in
// place; insert entries add a brand new slot in sorted position. Applying a plan always
// grows the parent's slot count by exactly one.
type DividerPlan struct {
	Replace []DividerAction
	Insert  []DividerAction
}

// ComputeDividers derives the replace/insert actions to apply to parent
// after existing (a leaf, now holding only its lower half) split off new
// (the freshly created right sibling holding the upper half).
func ComputeDividers(parent, existing, newSibling *PagedNode) DividerPlan {
	mid := btpage.Average(newSibling.Leaf.FirstKey(), existing.Leaf.LastKey())

	if parent.Internal.ElementsCount() == 0 {
		return DividerPlan{
			Insert: []DividerAction{
				{DividerKey: mid, Child: existing},
				{DividerKey: newSibling.Leaf.LastKey(), Child: newSibling},
			},
		}
	}

	if parent.Internal.IsRightmostChild(existing.PageID) {
		return DividerPlan{
			Replace: []DividerAction{{DividerKey: mid, Child: existing}},
			Insert:  []DividerAction{{DividerKey: newSibling.Leaf.LastKey(), Child: newSibling}},
		}
	}

	_, oldDivider, _, _ := parent.Internal.FindPositionFor(existing.Leaf.FirstKey(), btpage.IntentionChild)
	return DividerPlan{
		Replace: []DividerAction{{DividerKey: mid, Child: existing}},
		Insert:  []DividerAction{{DividerKey: oldDivider, Child: newSibling}},
	}
}
