// Package bench is the comparison harness for the paged B+-tree core: it
// records per-backend insert latency and steady-state memory footprint to a
// CSV, the two axes this engine's Insert-only core actually supports (there
// is no Get to drive a read-heavy workload mix).
package bench

import (
	"context"
	"encoding/csv"
	"runtime"
	"strconv"
	"time"
)

// BenchResult is one recorded row of the comparison CSV.
type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// MemoryStats is a snapshot of live heap usage, forcing a GC first so
// freed-but-not-yet-collected garbage doesn't inflate the reading.
type MemoryStats struct {
	AllocMB      uint64
	TotalAllocMB uint64
	HeapObjects  uint64
}

// GetDetailedMem forces a GC and reports the resulting live-heap stats.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
	}
}

// Record writes one BenchResult row as six CSV columns.
func Record(w *csv.Writer, res BenchResult) error {
	return w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}

// Header is the CSV header row every RunInsertSuite caller should write once.
func Header() []string {
	return []string{"Structure", "Config", "Operation", "LatencyNs", "MemMB", "HeapObjects"}
}

// Inserter is the narrow surface RunInsertSuite drives. The paged B+-tree
// core's *bptree.Handle satisfies this directly; bench/pebbleindex adapts
// pebble to the same shape.
type Inserter interface {
	Insert(ctx context.Context, key uint32, value []byte) error
	Close() error
}

// RunInsertSuite loads n sequential keys into ins, recording per-key average
// insert latency and the steady-state memory footprint immediately after the
// load.
func RunInsertSuite(w *csv.Writer, name, config string, ins Inserter, n int, value []byte) error {
	ctx := context.Background()

	start := time.Now()
	for k := uint32(0); k < uint32(n); k++ {
		if err := ins.Insert(ctx, k, value); err != nil {
			return err
		}
	}
	latency := time.Since(start).Nanoseconds() / int64(n)

	stats := GetDetailedMem()
	return Record(w, BenchResult{
		Name:      name,
		Config:    config,
		Operation: "Footprint_SteadyState",
		LatencyNs: latency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})
}
