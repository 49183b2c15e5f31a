package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meredith/turnwise/internal/outcome"
)

func sampleRows() []outcome.DistributionRow {
	return []outcome.DistributionRow{
		{
			Model:   "anthropic/model-a",
			Domain:  "persistence",
			Source:  "persistence_stats.json",
			N:       5,
			Counts:  [outcome.NumLabels]int{3, 2, 0, 0},
			Pcts:    [outcome.NumLabels]float64{0.6, 0.4, 0, 0},
			HasPcts: true,
		},
		{
			Model:  "anthropic/model-b",
			Domain: "unknown",
			Source: "empty_stats.json",
			// N == 0: percentages undefined.
		},
	}
}

func TestCSVExporter_ColumnsAndUndefinedPcts(t *testing.T) {
	out, err := (&CSVExporter{}).Export(sampleRows())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-read CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	if len(records[0]) != len(TablesHeader()) {
		t.Errorf("header columns = %d, want %d", len(records[0]), len(TablesHeader()))
	}
	if records[1][4] != "3" {
		t.Errorf("count_FABRICATION = %q, want 3", records[1][4])
	}
	if records[1][8] != "0.6000" {
		t.Errorf("pct_FABRICATION = %q, want 0.6000", records[1][8])
	}
	// Zero-total row leaves its percentage cells empty, not "0".
	for j := 8; j < 12; j++ {
		if records[2][j] != "" {
			t.Errorf("zero-total pct cell %d = %q, want empty", j, records[2][j])
		}
	}
}

func TestJSONExporter_NullForUndefinedPcts(t *testing.T) {
	out, err := (&JSONExporter{}).Export(sampleRows())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("re-decode JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("rows = %d, want 2", len(decoded))
	}
	pcts := decoded[0]["percentages"].(map[string]any)
	if pcts["FABRICATION"].(float64) != 0.6 {
		t.Errorf("FABRICATION pct = %v, want 0.6", pcts["FABRICATION"])
	}
	empty := decoded[1]["percentages"].(map[string]any)
	if empty["FABRICATION"] != nil {
		t.Errorf("undefined pct = %v, want null", empty["FABRICATION"])
	}
}

func TestJSONExporter_EmptyRowsEncodeAsArray(t *testing.T) {
	out, err := (&JSONExporter{}).Export(nil)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("Export(nil) = %q, want []", out)
	}
}

func TestMarkdownExporter_TableShape(t *testing.T) {
	out, err := (&MarkdownExporter{}).Export(sampleRows())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(out, "# Label Distribution Report") {
		t.Error("missing report header")
	}
	if !strings.Contains(out, "| anthropic/model-a | persistence |") {
		t.Error("missing model-a row")
	}
	if !strings.Contains(out, "3 (60.0%)") {
		t.Error("missing formatted count/percentage cell")
	}
	if !strings.Contains(out, "(–)") {
		t.Error("undefined percentage should render as a dash")
	}
}

func TestExporterFor(t *testing.T) {
	for _, format := range []string{"csv", "json", "markdown", "md", "CSV"} {
		if _, err := ExporterFor(format); err != nil {
			t.Errorf("ExporterFor(%q) error = %v", format, err)
		}
	}
	if _, err := ExporterFor("xml"); err == nil {
		t.Error("ExporterFor(xml) error = nil, want error")
	}
}

func TestExportToFile_RoundTripsThroughReader(t *testing.T) {
	rows := sampleRows()
	path := filepath.Join(t.TempDir(), "tables.csv")

	if err := ExportToFile(rows, path, "csv"); err != nil {
		t.Fatalf("ExportToFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	got, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("ReadRows() = %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i].Model != rows[i].Model || got[i].N != rows[i].N {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
		if got[i].Counts != rows[i].Counts {
			t.Errorf("row %d counts = %v, want %v", i, got[i].Counts, rows[i].Counts)
		}
		if got[i].HasPcts != rows[i].HasPcts {
			t.Errorf("row %d HasPcts = %t, want %t", i, got[i].HasPcts, rows[i].HasPcts)
		}
	}
}
