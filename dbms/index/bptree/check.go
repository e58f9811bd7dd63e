package bptree

import "fmt"

// noBound marks an unconstrained divider bound in CheckTreeContract: -1
// can never collide with a real uint32 divider value.
const noBound = int64(-1)

// CheckTreeContract walks the whole tree and asserts that every key reachable
// through a given child lies within that child's divider bounds. It is a
// debug aid, not part of the insert path, and is O(tree size).
func (h *Handle) CheckTreeContract() error {
	return h.checkNode(h.pager.RootPageID(), noBound, noBound)
}

func (h *Handle) checkNode(pageID uint32, low, high int64) error {
	pn, err := h.loadNode(pageID)
	if err != nil {
		return err
	}
	if pn.IsLeaf() {
		for i := 0; i < pn.Leaf.ElementsCount(); i++ {
			k := int64(pn.Leaf.KeyAt(i))
			if low != noBound && k <= low {
				return fmt.Errorf("bptree: page %d key %d not greater than divider %d", pageID, k, low)
			}
			if high != noBound && k > high {
				return fmt.Errorf("bptree: page %d key %d exceeds divider %d", pageID, k, high)
			}
		}
		return nil
	}
	prev := low
	for i := 0; i < pn.Internal.ElementsCount(); i++ {
		divider, child := pn.Internal.SlotAt(i)
		if err := h.checkNode(child, prev, int64(divider)); err != nil {
			return err
		}
		prev = int64(divider)
	}
	return nil
}
