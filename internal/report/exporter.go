// Package report serializes distribution rows and transition matrices into
// the tabular and report formats consumed outside the analysis core: CSV for
// spreadsheets and the figures command, JSON for downstream tooling, and
// Markdown/HTML for human readers.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/outcome"
)

// Exporter renders distribution rows into one output format.
type Exporter interface {
	Export(rows []outcome.DistributionRow) (string, error)
}

// TablesHeader is the fixed column set of the tables CSV. Percentage cells
// are empty when a row's total is zero: undefined means "no data", which a
// zero would misreport.
func TablesHeader() []string {
	header := []string{"model", "domain", "source", "n"}
	for _, label := range outcome.Labels() {
		header = append(header, "count_"+string(label))
	}
	for _, label := range outcome.Labels() {
		header = append(header, "pct_"+string(label))
	}
	return header
}

// CSVExporter renders rows as the tables CSV.
type CSVExporter struct{}

// Export converts rows to CSV with the TablesHeader column set.
func (e *CSVExporter) Export(rows []outcome.DistributionRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(TablesHeader()); err != nil {
		return "", fmt.Errorf("write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.Model, row.Domain, row.Source, strconv.Itoa(row.N)}
		for _, c := range row.Counts {
			record = append(record, strconv.Itoa(c))
		}
		for i := range row.Pcts {
			if row.HasPcts {
				record = append(record, strconv.FormatFloat(row.Pcts[i], 'f', 4, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush CSV: %w", err)
	}
	return sb.String(), nil
}

// rowJSON is the JSON wire form of one distribution row. Percentages are
// pointers so an undefined value serializes as null rather than 0.
type rowJSON struct {
	Model  string              `json:"model"`
	Domain string              `json:"domain"`
	Source string              `json:"source"`
	N      int                 `json:"n"`
	Counts map[string]int      `json:"counts"`
	Pcts   map[string]*float64 `json:"percentages"`
}

// JSONExporter renders rows as a JSON array.
type JSONExporter struct {
	Pretty bool
}

// Export converts rows to JSON. A nil or empty slice encodes as [].
func (e *JSONExporter) Export(rows []outcome.DistributionRow) (string, error) {
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		j := rowJSON{
			Model:  row.Model,
			Domain: row.Domain,
			Source: row.Source,
			N:      row.N,
			Counts: make(map[string]int, outcome.NumLabels),
			Pcts:   make(map[string]*float64, outcome.NumLabels),
		}
		for i, label := range outcome.Labels() {
			j.Counts[string(label)] = row.Counts[i]
			if row.HasPcts {
				p := row.Pcts[i]
				j.Pcts[string(label)] = &p
			} else {
				j.Pcts[string(label)] = nil
			}
		}
		out = append(out, j)
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "", fmt.Errorf("marshal rows: %w", err)
	}
	return string(data), nil
}

// MarkdownExporter renders rows as a Markdown report.
type MarkdownExporter struct {
	IncludeTimestamp bool
}

// Export converts rows to a Markdown document with one table of counts and
// percentages. Undefined percentages render as a dash.
func (e *MarkdownExporter) Export(rows []outcome.DistributionRow) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Label Distribution Report\n\n")
	if e.IncludeTimestamp {
		sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	}

	if len(rows) == 0 {
		sb.WriteString("No distribution rows.\n")
		return sb.String(), nil
	}

	sb.WriteString("| Model | Domain | Source | N |")
	for _, label := range outcome.Labels() {
		sb.WriteString(" " + label.Title() + " |")
	}
	sb.WriteString("\n|-------|--------|--------|---|")
	for range outcome.Labels() {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d |", row.Model, row.Domain, row.Source, row.N))
		for i, c := range row.Counts {
			if row.HasPcts {
				sb.WriteString(fmt.Sprintf(" %d (%.1f%%) |", c, row.Pcts[i]*100))
			} else {
				sb.WriteString(fmt.Sprintf(" %d (–) |", c))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ExporterFor maps a format name to an exporter. "md" is an alias for
// "markdown".
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVExporter{}, nil
	case "json":
		return &JSONExporter{Pretty: true}, nil
	case "markdown", "md":
		return &MarkdownExporter{IncludeTimestamp: true}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: csv, json, markdown)", format)
	}
}

// ExportToFile renders rows in the given format and writes them atomically,
// so a concurrent reader never sees a half-written table.
func ExportToFile(rows []outcome.DistributionRow, path, format string) error {
	exporter, err := ExporterFor(format)
	if err != nil {
		return err
	}
	content, err := exporter.Export(rows)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return filelock.AtomicWrite(path, []byte(content))
}
