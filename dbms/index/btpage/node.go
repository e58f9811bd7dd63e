// Package btpage implements the slotted-page layout shared by leaf and
// internal nodes of the B+-tree: a forward-growing slot array following a
// fixed 16-byte header, and (for leaves) a backward-growing value heap.
//
// Node payload layout:
//
//	[0..16)   header: node_type(4) | free_space_start(4) | free_space_end(4) | elements_count(4)
//	[16..x)   slot array, growing forward from offset 16
//	[x..y)    free space
//	[y..end)  value heap, growing backward from the payload's end (leaf only)
//
// Leaf slots are 12 bytes (key, length, reference); internal slots are 8
// bytes (divider_key, child_page_id). Both grow the slot array the same way;
// only the heap exists for leaves, since internal nodes have nothing to
// spill off the slot itself.
package btpage

import (
	"github.com/btree-query-bench/simpledataengine/engineerr"
	"github.com/btree-query-bench/simpledataengine/wire"
)

// Kind distinguishes a leaf page from an internal page.
type Kind uint32

const (
	KindInternal Kind = 0
	KindLeaf     Kind = 1
)

const (
	// HeaderBytes is the fixed size of a node header.
	HeaderBytes = 16

	// LeafSlotSize is the width of one leaf slot: key(4) + length(4) + reference(4).
	LeafSlotSize = 12

	// InternalSlotSize is the width of one internal slot: divider_key(4) + child_page_id(4).
	InternalSlotSize = 8
)

// Header is the decoded form of a node's fixed 16-byte header.
type Header struct {
	Kind          Kind
	FreeStart     uint32
	FreeEnd       uint32
	ElementsCount uint32
}

// EncodeHeader writes h into buf[0:HeaderBytes].
func EncodeHeader(buf []byte, h Header) {
	wire.PutUint32At(buf, 0, uint32(h.Kind))
	wire.PutUint32At(buf, 4, h.FreeStart)
	wire.PutUint32At(buf, 8, h.FreeEnd)
	wire.PutUint32At(buf, 12, h.ElementsCount)
}

// DecodeHeader reads a header from buf and validates its basic invariants:
// a recognized kind and free_space_start <= free_space_end <= len(buf). A
// node header that fails to decode is how root initialization (see
// bptree.Open) detects a metapage with no tree on it yet.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderBytes {
		return Header{}, engineerr.New(engineerr.CorruptHeader, "node header: buffer too short (%d bytes)", len(buf))
	}
	kind := Kind(wire.Uint32At(buf, 0))
	if kind != KindInternal && kind != KindLeaf {
		return Header{}, engineerr.New(engineerr.CorruptHeader, "node header: unrecognized kind %d", kind)
	}
	freeStart := wire.Uint32At(buf, 4)
	freeEnd := wire.Uint32At(buf, 8)
	count := wire.Uint32At(buf, 12)
	if freeStart < HeaderBytes || freeStart > freeEnd || int(freeEnd) > len(buf) {
		return Header{}, engineerr.New(engineerr.CorruptHeader, "node header: inconsistent offsets (start=%d end=%d len=%d)", freeStart, freeEnd, len(buf))
	}
	return Header{Kind: kind, FreeStart: freeStart, FreeEnd: freeEnd, ElementsCount: count}, nil
}

// Sniff peeks at a node header without committing to leaf or internal
// interpretation, used by the traversal layer to dispatch.
func Sniff(buf []byte) (Header, error) {
	return DecodeHeader(buf)
}

// node is the common state shared by leaf and internal pages: the backing
// buffer (the node's full on-disk payload) and the decoded header.
type node struct {
	buf []byte
	hdr Header
}

func newNode(buf []byte, kind Kind) *node {
	n := &node{
		buf: buf,
		hdr: Header{Kind: kind, FreeStart: HeaderBytes, FreeEnd: uint32(len(buf)), ElementsCount: 0},
	}
	n.writeHeader()
	return n
}

func (n *node) writeHeader() { EncodeHeader(n.buf, n.hdr) }

// Bytes returns the node's payload with its header re-encoded to match the
// current in-memory state, ready to hand to the pager.
func (n *node) Bytes() []byte {
	n.writeHeader()
	return n.buf
}

// ElementsCount returns the number of slots currently populated.
func (n *node) ElementsCount() int { return int(n.hdr.ElementsCount) }

// IsEmpty reports whether the node holds no slots.
func (n *node) IsEmpty() bool { return n.hdr.ElementsCount == 0 }

// FreeBytes returns the number of bytes currently unused between the slot
// array and the value heap (or, for internal nodes, simply past the slot array).
func (n *node) FreeBytes() int { return int(n.hdr.FreeEnd - n.hdr.FreeStart) }

func (n *node) slotOffset(i, slotSize int) int { return HeaderBytes + i*slotSize }

// ─── LeafNode ───────────────────────────────────────────────────────────────

// LeafNode is a slotted leaf page: a slot array of {key, length, reference}
// growing forward from the header, and a value heap growing backward from
// the end of the payload.
type LeafNode struct{ *node }

// NewLeaf initializes buf (its full length becomes the node's payload size)
// as a fresh, empty leaf.
func NewLeaf(buf []byte) *LeafNode {
	return &LeafNode{newNode(buf, KindLeaf)}
}

// LoadLeaf decodes an existing leaf node from buf.
func LoadLeaf(buf []byte) (*LeafNode, error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if hdr.Kind != KindLeaf {
		return nil, engineerr.New(engineerr.CorruptHeader, "node header: expected leaf, got kind %d", hdr.Kind)
	}
	return &LeafNode{&node{buf: buf, hdr: hdr}}, nil
}

// MaxLeafValueSize is the "one-value-per-leaf" cap: a value larger than this
// cannot be placed into an empty leaf, regardless of page. It is derived
// from the metapage's smaller payload, since an empty root must always fit
// there before the tree's first split.
func MaxLeafValueSize(pageSize, dbHeaderBytes int) int {
	return (pageSize - dbHeaderBytes - HeaderBytes - LeafSlotSize) * 2 / 3
}

type leafSlot struct {
	Key       uint32
	Length    uint32
	Reference uint32
}

func encodeLeafSlot(buf []byte, s leafSlot) {
	wire.PutUint32At(buf, 0, s.Key)
	wire.PutUint32At(buf, 4, s.Length)
	wire.PutUint32At(buf, 8, s.Reference)
}

func decodeLeafSlot(buf []byte) leafSlot {
	return leafSlot{
		Key:       wire.Uint32At(buf, 0),
		Length:    wire.Uint32At(buf, 4),
		Reference: wire.Uint32At(buf, 8),
	}
}

func (l *LeafNode) slotAt(i int) leafSlot {
	off := l.slotOffset(i, LeafSlotSize)
	return decodeLeafSlot(l.buf[off : off+LeafSlotSize])
}

// KeyAt returns the key stored in slot i.
func (l *LeafNode) KeyAt(i int) uint32 { return l.slotAt(i).Key }

// ValueAt returns a copy of the value bytes stored in slot i.
func (l *LeafNode) ValueAt(i int) []byte {
	s := l.slotAt(i)
	v := make([]byte, s.Length)
	copy(v, l.buf[s.Reference:s.Reference+s.Length])
	return v
}

// FirstKey returns the smallest key in the leaf. Callers must check IsEmpty first.
func (l *LeafNode) FirstKey() uint32 { return l.KeyAt(0) }

// LastKey returns the largest key in the leaf (the leaf's high key). Callers
// must check IsEmpty first.
func (l *LeafNode) LastKey() uint32 { return l.KeyAt(l.ElementsCount() - 1) }

// GtHighKey reports whether key exceeds the leaf's current maximum key.
func (l *LeafNode) GtHighKey(key uint32) bool {
	return !l.IsEmpty() && key > l.LastKey()
}

// CanFit reports whether value can be placed without splitting.
func (l *LeafNode) CanFit(value []byte) bool {
	return len(value)+LeafSlotSize <= l.FreeBytes()
}

// CanFitIntoEmpty reports whether value is small enough ever to be placed
// into an empty leaf at all (see MaxLeafValueSize). It does not depend on
// any particular node's state, only on the fixed page geometry.
func CanFitIntoEmpty(value []byte, pageSize, dbHeaderBytes int) bool {
	return len(value) <= MaxLeafValueSize(pageSize, dbHeaderBytes)
}

// FindPosition binary-searches the slot array for key, returning the
// insertion point and whether an exact match already exists there.
func (l *LeafNode) FindPosition(key uint32) (index int, found bool) {
	lo, hi := 0, l.ElementsCount()
	for lo < hi {
		mid := (lo + hi) / 2
		if l.KeyAt(mid) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < l.ElementsCount() && l.KeyAt(lo) == key
}

// SortedInsert places value at slot index, shifting any existing slots
// [index, count) forward by one slot width first. It does not check CanFit;
// callers are expected to have verified room, or be building a fresh leaf
// during a split.
func (l *LeafNode) SortedInsert(index int, key uint32, value []byte) {
	newEnd := l.hdr.FreeEnd - uint32(len(value))
	copy(l.buf[newEnd:l.hdr.FreeEnd], value)
	l.hdr.FreeEnd = newEnd

	count := l.ElementsCount()
	if index < count {
		srcStart := l.slotOffset(index, LeafSlotSize)
		srcEnd := l.slotOffset(count, LeafSlotSize)
		dstStart := srcStart + LeafSlotSize
		copy(l.buf[dstStart:dstStart+(srcEnd-srcStart)], l.buf[srcStart:srcEnd])
	}

	off := l.slotOffset(index, LeafSlotSize)
	encodeLeafSlot(l.buf[off:off+LeafSlotSize], leafSlot{Key: key, Length: uint32(len(value)), Reference: newEnd})

	l.hdr.ElementsCount++
	l.hdr.FreeStart += LeafSlotSize
}

// Put inserts (key, value) in sorted position. Callers must have already
// verified CanFit and that key does not already exist.
func (l *LeafNode) Put(key uint32, value []byte) {
	if !l.CanFit(value) {
		panic("btpage: Put called without CanFit room")
	}
	idx, found := l.FindPosition(key)
	if found {
		panic("btpage: Put called with a duplicate key")
	}
	l.SortedInsert(idx, key, value)
}

// Split moves the top half of this leaf's slots (by descending key) into a
// freshly initialized leaf built over newBuf, and shrinks this leaf's slot
// array accordingly. The value-heap bytes belonging to the transferred
// slots are not reclaimed in this leaf; they become dead space.
//
// Precondition: ElementsCount() >= 2.
func (l *LeafNode) Split(newBuf []byte) *LeafNode {
	n := l.ElementsCount()
	if n < 2 {
		panic("btpage: Split requires at least 2 elements")
	}
	keep := (n + 1) / 2
	newLeaf := NewLeaf(newBuf)

	for i := n - 1; i >= keep; i-- {
		key := l.KeyAt(i)
		value := l.ValueAt(i)
		newLeaf.SortedInsert(0, key, value)
	}

	removed := uint32(n - keep)
	l.hdr.ElementsCount = uint32(keep)
	l.hdr.FreeStart -= removed * LeafSlotSize

	return newLeaf
}

// ─── InternalNode ───────────────────────────────────────────────────────────

// Intention distinguishes the two callers of FindPositionFor: one walking
// down to a child (and willing to fall back to the rightmost slot), one
// locating where a brand new divider should be inserted.
type Intention int

const (
	IntentionChild Intention = iota
	IntentionInsert
)

// InternalNode is a slotted internal page: a slot array of
// {divider_key, child_page_id} sorted ascending by divider. The last slot's
// divider is the node's high key.
type InternalNode struct{ *node }

// NewInternal initializes buf as a fresh, empty internal node.
func NewInternal(buf []byte) *InternalNode {
	return &InternalNode{newNode(buf, KindInternal)}
}

// LoadInternal decodes an existing internal node from buf.
func LoadInternal(buf []byte) (*InternalNode, error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if hdr.Kind != KindInternal {
		return nil, engineerr.New(engineerr.CorruptHeader, "node header: expected internal, got kind %d", hdr.Kind)
	}
	return &InternalNode{&node{buf: buf, hdr: hdr}}, nil
}

type internalSlot struct {
	DividerKey  uint32
	ChildPageID uint32
}

func encodeInternalSlot(buf []byte, s internalSlot) {
	wire.PutUint32At(buf, 0, s.DividerKey)
	wire.PutUint32At(buf, 4, s.ChildPageID)
}

func decodeInternalSlot(buf []byte) internalSlot {
	return internalSlot{
		DividerKey:  wire.Uint32At(buf, 0),
		ChildPageID: wire.Uint32At(buf, 4),
	}
}

func (n *InternalNode) slotAt(i int) internalSlot {
	off := n.slotOffset(i, InternalSlotSize)
	return decodeInternalSlot(n.buf[off : off+InternalSlotSize])
}

// SlotAt returns the divider key and child page id of slot i.
func (n *InternalNode) SlotAt(i int) (dividerKey uint32, childPageID uint32) {
	s := n.slotAt(i)
	return s.DividerKey, s.ChildPageID
}

// CanFitMore reports whether at least one more slot fits.
func (n *InternalNode) CanFitMore() bool { return n.FreeBytes() >= InternalSlotSize }

// FindPositionFor binary-searches the dividers for targetKey. If the search
// lands within the slot array, that slot is returned directly. Otherwise,
// for IntentionChild it falls back to the rightmost slot (the high-key slot
// absorbs overflow lookups); for IntentionInsert it reports the append
// position with ok=false, leaving the caller to append.
func (n *InternalNode) FindPositionFor(targetKey uint32, intention Intention) (index int, dividerKey uint32, childPageID uint32, ok bool) {
	count := n.ElementsCount()
	lo, hi := 0, count
	for lo < hi {
		mid := (lo + hi) / 2
		if n.slotAt(mid).DividerKey < targetKey {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < count {
		s := n.slotAt(lo)
		return lo, s.DividerKey, s.ChildPageID, true
	}
	switch intention {
	case IntentionChild:
		if count == 0 {
			panic("btpage: FindPositionFor(IntentionChild) on empty internal node")
		}
		s := n.slotAt(count - 1)
		return count - 1, s.DividerKey, s.ChildPageID, true
	default:
		return count, 0, 0, false
	}
}

// ChildPageIDForKey returns the child page id that key would descend into.
func (n *InternalNode) ChildPageIDForKey(key uint32) uint32 {
	_, _, child, _ := n.FindPositionFor(key, IntentionChild)
	return child
}

// Put inserts a new (divider, childPageID) slot in sorted position.
// Precondition: CanFitMore().
func (n *InternalNode) Put(divider uint32, childPageID uint32) {
	if !n.CanFitMore() {
		panic("btpage: Put called without CanFitMore room")
	}
	idx, _, _, _ := n.FindPositionFor(divider, IntentionInsert)
	count := n.ElementsCount()
	if idx < count {
		srcStart := n.slotOffset(idx, InternalSlotSize)
		srcEnd := n.slotOffset(count, InternalSlotSize)
		dstStart := srcStart + InternalSlotSize
		copy(n.buf[dstStart:dstStart+(srcEnd-srcStart)], n.buf[srcStart:srcEnd])
	}
	off := n.slotOffset(idx, InternalSlotSize)
	encodeInternalSlot(n.buf[off:off+InternalSlotSize], internalSlot{DividerKey: divider, ChildPageID: childPageID})
	n.hdr.ElementsCount++
	n.hdr.FreeStart += InternalSlotSize
}

// ReplaceDivider locates the slot serving forKey via FindPositionFor with
// IntentionChild, asserts its child matches childPageID, and overwrites its
// divider with newDivider.
func (n *InternalNode) ReplaceDivider(forKey uint32, newDivider uint32, childPageID uint32) {
	idx, _, child, _ := n.FindPositionFor(forKey, IntentionChild)
	if child != childPageID {
		panic("btpage: ReplaceDivider child mismatch")
	}
	off := n.slotOffset(idx, InternalSlotSize)
	wire.PutUint32At(n.buf, off, newDivider)
}

// IsRightmostChild reports whether pageID is this node's last (highest-divider) child.
func (n *InternalNode) IsRightmostChild(pageID uint32) bool {
	count := n.ElementsCount()
	if count == 0 {
		return false
	}
	_, child := n.SlotAt(count - 1)
	return child == pageID
}

// LastDivider returns the node's high key: the divider of its rightmost slot.
func (n *InternalNode) LastDivider() uint32 {
	dividerKey, _ := n.SlotAt(n.ElementsCount() - 1)
	return dividerKey
}

// LastChildPageID returns the page id of the rightmost child.
func (n *InternalNode) LastChildPageID() uint32 {
	_, childPageID := n.SlotAt(n.ElementsCount() - 1)
	return childPageID
}

// Average computes the overflow-safe floor midpoint of a and b:
// (a AND b) + ((a XOR b) >> 1).
func Average(a, b uint32) uint32 {
	return (a & b) + ((a ^ b) >> 1)
}
