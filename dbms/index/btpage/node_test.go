package btpage

import (
	"bytes"
	"testing"
)

func freshLeafBuf(size int) []byte { return make([]byte, size) }

func TestLeafSingleLeafLayout(t *testing.T) {
	// Insert (10, "Ten") then (3, "Three")
	// into a fresh metapage-sized leaf and check the resulting byte layout.
	buf := freshLeafBuf(3996)
	leaf := NewLeaf(buf)

	leaf.Put(10, []byte("Ten"))
	leaf.Put(3, []byte("Three"))

	got := leaf.Bytes()
	hdr, err := DecodeHeader(got)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Kind != KindLeaf || hdr.FreeStart != 40 || hdr.FreeEnd != 3988 || hdr.ElementsCount != 2 {
		t.Fatalf("unexpected header: %+v", hdr)
	}

	slot0 := decodeLeafSlot(got[16:28])
	if slot0 != (leafSlot{Key: 3, Length: 5, Reference: 3988}) {
		t.Fatalf("slot0 = %+v", slot0)
	}
	slot1 := decodeLeafSlot(got[28:40])
	if slot1 != (leafSlot{Key: 10, Length: 3, Reference: 3993}) {
		t.Fatalf("slot1 = %+v", slot1)
	}
	if !bytes.Equal(got[3993:3996], []byte("Ten")) {
		t.Fatalf("value at 3993: %q", got[3993:3996])
	}
	if !bytes.Equal(got[3988:3993], []byte("Three")) {
		t.Fatalf("value at 3988: %q", got[3988:3993])
	}
}

func TestLeafFindPosition(t *testing.T) {
	buf := freshLeafBuf(4096)
	leaf := NewLeaf(buf)
	leaf.Put(10, []byte("a"))
	leaf.Put(30, []byte("b"))
	leaf.Put(20, []byte("c"))

	cases := []struct {
		key   uint32
		index int
		found bool
	}{
		{5, 0, false},
		{10, 0, true},
		{15, 1, false},
		{20, 1, true},
		{25, 2, false},
		{30, 2, true},
		{35, 3, false},
	}
	for _, c := range cases {
		idx, found := leaf.FindPosition(c.key)
		if idx != c.index || found != c.found {
			t.Errorf("FindPosition(%d) = (%d,%v), want (%d,%v)", c.key, idx, found, c.index, c.found)
		}
	}
}

func TestLeafSplitInteriorScenario(t *testing.T) {
	// p1 holds {4..10} (7 elements); keep = ceil(7/2) = 4, so the original
	// leaf retains the lower 4 keys {4,5,6,7} and the new sibling gets the
	// upper 3 {8,9,10}.
	buf := freshLeafBuf(4096)
	leaf := NewLeaf(buf)
	for k := uint32(4); k <= 10; k++ {
		leaf.Put(k, []byte{byte(k)})
	}

	newBuf := freshLeafBuf(4096)
	sibling := leaf.Split(newBuf)

	if leaf.ElementsCount() != 4 {
		t.Fatalf("original leaf count = %d, want 4", leaf.ElementsCount())
	}
	if sibling.ElementsCount() != 3 {
		t.Fatalf("sibling count = %d, want 3", sibling.ElementsCount())
	}
	for i, want := range []uint32{4, 5, 6, 7} {
		if leaf.KeyAt(i) != want {
			t.Errorf("leaf.KeyAt(%d) = %d, want %d", i, leaf.KeyAt(i), want)
		}
	}
	for i, want := range []uint32{8, 9, 10} {
		if sibling.KeyAt(i) != want {
			t.Errorf("sibling.KeyAt(%d) = %d, want %d", i, sibling.KeyAt(i), want)
		}
	}
	if leaf.LastKey() != 7 {
		t.Fatalf("leaf.LastKey() = %d, want 7", leaf.LastKey())
	}
	if got := Average(sibling.FirstKey(), leaf.LastKey()); got != 7 {
		t.Fatalf("Average(8,7) = %d, want 7", got)
	}
}

func TestInternalFindPositionForAndPut(t *testing.T) {
	buf := freshLeafBuf(4096)
	n := NewInternal(buf)
	n.Put(10, 1)
	n.Put(20, 2)
	n.Put(30, 3)

	idx, divider, child, ok := n.FindPositionFor(20, IntentionChild)
	if !ok || idx != 1 || divider != 20 || child != 2 {
		t.Fatalf("FindPositionFor(20, Child) = (%d,%d,%d,%v)", idx, divider, child, ok)
	}

	// A key past the last divider absorbs into the rightmost slot.
	idx, divider, child, ok = n.FindPositionFor(999, IntentionChild)
	if !ok || idx != 2 || divider != 30 || child != 3 {
		t.Fatalf("FindPositionFor(999, Child) = (%d,%d,%d,%v)", idx, divider, child, ok)
	}

	// Insert intention reports the append position instead.
	idx, _, _, ok = n.FindPositionFor(999, IntentionInsert)
	if ok || idx != 3 {
		t.Fatalf("FindPositionFor(999, Insert) = (%d,_,_,%v)", idx, ok)
	}

	if !n.IsRightmostChild(3) {
		t.Fatalf("IsRightmostChild(3) = false, want true")
	}
	if n.LastDivider() != 30 {
		t.Fatalf("LastDivider() = %d, want 30", n.LastDivider())
	}

	n.ReplaceDivider(30, 35, 3)
	if n.LastDivider() != 35 {
		t.Fatalf("LastDivider() after replace = %d, want 35", n.LastDivider())
	}
}

func TestAverageMidpointLaw(t *testing.T) {
	cases := [][2]uint32{
		{9, 2}, {7, 6}, {0, 0}, {0, 0xFFFFFFFF}, {0xFFFFFFFF, 0xFFFFFFFF}, {1, 2}, {100, 101},
	}
	for _, c := range cases {
		a, b := c[0], c[1]
		got := Average(a, b)
		want := uint32((uint64(a) + uint64(b)) / 2)
		if got != want {
			t.Errorf("Average(%d,%d) = %d, want %d", a, b, got, want)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	h := Header{Kind: KindInternal, FreeStart: 16, FreeEnd: 64, ElementsCount: 3}
	EncodeHeader(buf, h)
	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderRejectsGarbage(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xFF
	}
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatal("expected an error decoding a garbage header")
	}
}
