// Command bench runs the insert-throughput/memory-footprint comparison
// harness (see package bench) against the paged B+-tree core and pebble,
// then renders the recorded CSV as a PNG chart.
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/btree-query-bench/simpledataengine/bench"
	"github.com/btree-query-bench/simpledataengine/bench/pebbleindex"
	"github.com/btree-query-bench/simpledataengine/bench/plot"
	"github.com/btree-query-bench/simpledataengine/dbms/index/bptree"
)

func main() {
	const csvPath = "bench_results.csv"
	const n = 10000

	f, err := os.Create(csvPath)
	if err != nil {
		log.Fatalf("create %s: %v", csvPath, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(bench.Header()); err != nil {
		log.Fatalf("write header: %v", err)
	}

	value := make([]byte, 64)
	for i := range value {
		value[i] = 'v'
	}

	runBPTree(w, n, value)
	runPebble(w, n, value)

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush csv: %v", err)
	}
	f.Close()

	rows, err := plot.ReadCSV(csvPath)
	if err != nil {
		log.Fatalf("read csv: %v", err)
	}
	if err := plot.RenderThroughputChart(rows, "bench_results.png"); err != nil {
		log.Fatalf("render chart: %v", err)
	}

	fmt.Println("Benchmark complete. See bench_results.csv and bench_results.png.")
}

func runBPTree(w *csv.Writer, n int, value []byte) {
	const path = "bench_bptree.db"
	_ = os.Remove(path)
	defer os.Remove(path)

	h, err := bptree.Open(path, bptree.DefaultConfig())
	if err != nil {
		log.Fatalf("bptree open: %v", err)
	}
	defer h.Close()

	if err := bench.RunInsertSuite(w, "BPlusTree", "paged", h, n, value); err != nil {
		log.Fatalf("bptree suite: %v", err)
	}
}

func runPebble(w *csv.Writer, n int, value []byte) {
	dir, err := os.MkdirTemp("", "bench-pebble-*")
	if err != nil {
		log.Fatalf("mkdir temp: %v", err)
	}
	defer os.RemoveAll(dir)

	a, err := pebbleindex.Open(dir)
	if err != nil {
		log.Fatalf("pebble open: %v", err)
	}
	defer a.Close()

	if err := bench.RunInsertSuite(w, "LSM-Tree", "pebble", a, n, value); err != nil {
		log.Fatalf("pebble suite: %v", err)
	}
}
