package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/outcome"
)

// MatrixCSV renders one transition matrix as CSV: one row per turn-N label,
// one column per turn-N+1 label, in declared label order. When probs is true
// the cells hold row-normalized probabilities instead of counts.
func MatrixCSV(m outcome.TransitionMatrix, probs bool) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"from"}
	for _, label := range outcome.Labels() {
		header = append(header, string(label))
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write matrix header: %w", err)
	}

	for row, label := range outcome.Labels() {
		record := []string{string(label)}
		for col := 0; col < outcome.NumLabels; col++ {
			if probs {
				record = append(record, strconv.FormatFloat(m.Probs[row][col], 'f', 4, 64))
			} else {
				record = append(record, strconv.Itoa(m.Counts[row][col]))
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write matrix row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush matrix CSV: %w", err)
	}
	return sb.String(), nil
}

// matrixJSON is the JSON wire form of one model's transition matrix.
type matrixJSON struct {
	Labels        []string    `json:"labels"`
	Counts        [][]int     `json:"counts"`
	Probabilities [][]float64 `json:"probabilities"`
}

// MatricesJSON renders every model's matrices into one JSON document keyed by
// model identifier, with the label ordering declared alongside the tables.
func MatricesJSON(matrices map[string]outcome.TransitionMatrix) (string, error) {
	labels := make([]string, 0, outcome.NumLabels)
	for _, label := range outcome.Labels() {
		labels = append(labels, string(label))
	}

	out := make(map[string]matrixJSON, len(matrices))
	for model, m := range matrices {
		j := matrixJSON{Labels: labels}
		for row := 0; row < outcome.NumLabels; row++ {
			counts := make([]int, outcome.NumLabels)
			probs := make([]float64, outcome.NumLabels)
			for col := 0; col < outcome.NumLabels; col++ {
				counts[col] = m.Counts[row][col]
				probs[col] = m.Probs[row][col]
			}
			j.Counts = append(j.Counts, counts)
			j.Probabilities = append(j.Probabilities, probs)
		}
		out[model] = j
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal matrices: %w", err)
	}
	return string(data), nil
}

// WriteTransitionFiles writes, per model, a counts CSV and a probabilities
// CSV, plus one combined JSON document for all models. All writes are atomic.
func WriteTransitionFiles(dir string, matrices map[string]outcome.TransitionMatrix) error {
	for model, m := range matrices {
		short := outcome.ShortModel(model)
		counts, err := MatrixCSV(m, false)
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(filepath.Join(dir, "transitions_"+short+"_counts.csv"), []byte(counts)); err != nil {
			return err
		}
		probs, err := MatrixCSV(m, true)
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(filepath.Join(dir, "transitions_"+short+"_probs.csv"), []byte(probs)); err != nil {
			return err
		}
	}

	combined, err := MatricesJSON(matrices)
	if err != nil {
		return err
	}
	return filelock.AtomicWrite(filepath.Join(dir, "transitions.json"), []byte(combined))
}
