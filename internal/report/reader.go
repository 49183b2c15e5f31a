package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/meredith/turnwise/internal/outcome"
)

// ReadRows reads a tables CSV previously written by the CSVExporter back into
// distribution rows. The figures command accepts an existing tables file in
// place of a results directory, so the format has to round-trip.
func ReadRows(path string) ([]outcome.DistributionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read tables CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	want := len(TablesHeader())
	if len(records[0]) != want {
		return nil, fmt.Errorf("tables CSV %s: %d columns, want %d", path, len(records[0]), want)
	}

	rows := make([]outcome.DistributionRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row := outcome.DistributionRow{
			Model:  record[0],
			Domain: record[1],
			Source: record[2],
		}
		n, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("tables CSV %s row %d: bad n %q: %w", path, i+1, record[3], err)
		}
		row.N = n

		for j := 0; j < outcome.NumLabels; j++ {
			c, err := strconv.Atoi(record[4+j])
			if err != nil {
				return nil, fmt.Errorf("tables CSV %s row %d: bad count %q: %w", path, i+1, record[4+j], err)
			}
			row.Counts[j] = c
		}

		// An empty percentage cell means the row's total was zero and the
		// value is undefined; any one empty cell marks the whole set missing.
		row.HasPcts = true
		for j := 0; j < outcome.NumLabels; j++ {
			cell := record[4+outcome.NumLabels+j]
			if cell == "" {
				row.HasPcts = false
				break
			}
			p, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("tables CSV %s row %d: bad percentage %q: %w", path, i+1, cell, err)
			}
			row.Pcts[j] = p
		}
		if !row.HasPcts {
			row.Pcts = [outcome.NumLabels]float64{}
		}

		rows = append(rows, row)
	}
	return rows, nil
}
