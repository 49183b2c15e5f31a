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

func sampleMatrix() outcome.TransitionMatrix {
	return outcome.BuildTransitions(outcome.SequenceSet{
		"s": {
			{Index: 0, Label: outcome.Fabrication},
			{Index: 1, Label: outcome.Admission},
			{Index: 2, Label: outcome.Admission},
		},
	})
}

func TestMatrixCSV_Counts(t *testing.T) {
	out, err := MatrixCSV(sampleMatrix(), false)
	if err != nil {
		t.Fatalf("MatrixCSV() error = %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-read CSV: %v", err)
	}
	if len(records) != outcome.NumLabels+1 {
		t.Fatalf("records = %d, want %d", len(records), outcome.NumLabels+1)
	}
	if records[0][0] != "from" || records[0][1] != "FABRICATION" {
		t.Errorf("header = %v", records[0])
	}
	// FABRICATION -> ADMISSION counted once.
	if records[1][2] != "1" {
		t.Errorf("counts[FAB][ADM] cell = %q, want 1", records[1][2])
	}
}

func TestMatrixCSV_Probs(t *testing.T) {
	out, err := MatrixCSV(sampleMatrix(), true)
	if err != nil {
		t.Fatalf("MatrixCSV() error = %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-read CSV: %v", err)
	}
	if records[1][2] != "1.0000" {
		t.Errorf("probs[FAB][ADM] cell = %q, want 1.0000", records[1][2])
	}
	// Zero-support SILENT_REFUSAL row is all zeros, never empty or NaN.
	for col := 1; col <= outcome.NumLabels; col++ {
		if records[3][col] != "0.0000" {
			t.Errorf("zero-support row cell = %q, want 0.0000", records[3][col])
		}
	}
}

func TestMatricesJSON(t *testing.T) {
	matrices := map[string]outcome.TransitionMatrix{"m": sampleMatrix()}

	out, err := MatricesJSON(matrices)
	if err != nil {
		t.Fatalf("MatricesJSON() error = %v", err)
	}
	var decoded map[string]struct {
		Labels        []string    `json:"labels"`
		Counts        [][]int     `json:"counts"`
		Probabilities [][]float64 `json:"probabilities"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("re-decode JSON: %v", err)
	}
	m := decoded["m"]
	if len(m.Labels) != outcome.NumLabels || m.Labels[0] != "FABRICATION" {
		t.Errorf("labels = %v", m.Labels)
	}
	if m.Counts[0][1] != 1 {
		t.Errorf("counts[0][1] = %d, want 1", m.Counts[0][1])
	}
	if m.Probabilities[1][1] != 1.0 {
		t.Errorf("probs[1][1] = %f, want 1.0", m.Probabilities[1][1])
	}
}

func TestWriteTransitionFiles(t *testing.T) {
	dir := t.TempDir()
	matrices := map[string]outcome.TransitionMatrix{
		"anthropic/model-a": sampleMatrix(),
	}

	if err := WriteTransitionFiles(dir, matrices); err != nil {
		t.Fatalf("WriteTransitionFiles() error = %v", err)
	}
	for _, name := range []string{
		"transitions_model-a_counts.csv",
		"transitions_model-a_probs.csv",
		"transitions.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}
}

func TestBuildReport_IncludesMatrixSections(t *testing.T) {
	rows := sampleRows()
	matrices := map[string]outcome.TransitionMatrix{"anthropic/model-a": sampleMatrix()}

	md, err := BuildReport(rows, matrices)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if !strings.Contains(md, "## Transition Probabilities") {
		t.Error("missing transitions section")
	}
	if !strings.Contains(md, "### anthropic/model-a") {
		t.Error("missing per-model heading")
	}
	if !strings.Contains(md, "2 transitions observed.") {
		t.Error("missing transition total")
	}
}

func TestRenderHTML(t *testing.T) {
	md, err := BuildReport(sampleRows(), nil)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	html, err := RenderHTML(md)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	page := string(html)
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(page, "<h1") {
		t.Error("markdown heading did not convert to <h1>")
	}
	if !strings.Contains(page, "anthropic/model-a") {
		t.Error("row content missing from HTML")
	}
}

func TestWriteReportFiles(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")

	err := WriteReportFiles(mdPath, htmlPath, sampleRows(), map[string]outcome.TransitionMatrix{"m": sampleMatrix()})
	if err != nil {
		t.Fatalf("WriteReportFiles() error = %v", err)
	}
	for _, path := range []string{mdPath, htmlPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected output %s: %v", path, err)
		}
	}
}
