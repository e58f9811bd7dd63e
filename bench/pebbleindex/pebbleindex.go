// Package pebbleindex wraps Pebble (CockroachDB's LSM storage engine) behind
// the bench.Inserter shape so it can stand in as the comparison backend for
// the paged B+-tree core.
package pebbleindex

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Adapter owns a Pebble database opened for insert-only benchmarking.
type Adapter struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at dir and wraps it for benchmarking.
func Open(dir string) (*Adapter, error) {
	opts := &pebble.Options{
		// Use a 16 MB memtable
		MemTableSize: 16 << 20,
		// Stall writes once 4 memtables are queued, so flushes can overlap writes.
		MemTableStopWritesThreshold: 4,
		// L0 compaction trigger.
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebbleindex: open: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Insert stores value under key. ctx is checked once at entry only, since
// pebble's Set call has no cancellation hook of its own; like the core's
// Insert, it is not threaded through the write.
func (a *Adapter) Insert(ctx context.Context, key uint32, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.db.Set(encodeKey(key), value, pebble.NoSync)
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (a *Adapter) Close() error { return a.db.Close() }

// encodeKey encodes a uint32 as a big-endian 4-byte slice. Big-endian
// preserves sort order, which Pebble (and all LSM trees) rely on.
func encodeKey(k uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, k)
	return b
}
