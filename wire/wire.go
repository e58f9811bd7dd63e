// Package wire provides the fixed-width little-endian encode/decode helpers
// shared by the pager's database header and the B+-tree's node headers and
// slots. Every multi-byte integer on disk is little-endian regardless of
// host endianness; compound records encode fields in declaration order with
// no length prefixes.
package wire

import "encoding/binary"

// PutUint32 writes v as 4 little-endian bytes at buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32 reads 4 little-endian bytes from buf[0:4].
func Uint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// PutUint32At writes v as 4 little-endian bytes at buf[off:off+4].
func PutUint32At(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

// Uint32At reads 4 little-endian bytes from buf[off:off+4].
func Uint32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}
