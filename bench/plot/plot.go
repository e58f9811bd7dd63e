// Package plot renders a bench.Record CSV as a PNG throughput chart.
package plot

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Row is one parsed line of a bench.Record CSV (see bench.Header).
type Row struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// ReadCSV loads the rows written by bench.Record from path, skipping the
// header row bench.Header wrote.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plot: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("plot: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 6 {
			continue
		}
		latency, err := strconv.ParseInt(rec[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("plot: parse latency %q: %w", rec[3], err)
		}
		mem, err := strconv.ParseUint(rec[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("plot: parse mem %q: %w", rec[4], err)
		}
		objects, err := strconv.ParseUint(rec[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("plot: parse objects %q: %w", rec[5], err)
		}
		rows = append(rows, Row{
			Name:      rec[0],
			Config:    rec[1],
			Operation: rec[2],
			LatencyNs: latency,
			MemMB:     mem,
			Objects:   objects,
		})
	}
	return rows, nil
}

// RenderThroughputChart draws one bar per row, labelled "Name/Config", with
// bar height equal to its recorded insert latency, and saves it as a PNG at
// outPath.
func RenderThroughputChart(rows []Row, outPath string) error {
	p := plot.New()
	p.Title.Text = "Insert latency by backend"
	p.Y.Label.Text = "ns/op"

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, row := range rows {
		values[i] = float64(row.LatencyNs)
		labels[i] = row.Name + "/" + row.Config
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("plot: new bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return fmt.Errorf("plot: save %s: %w", outPath, err)
	}
	return nil
}
