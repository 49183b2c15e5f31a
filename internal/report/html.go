package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/outcome"
)

// BuildReport renders the full Markdown analysis report: the distribution
// table followed by one transition section per model.
func BuildReport(rows []outcome.DistributionRow, matrices map[string]outcome.TransitionMatrix) (string, error) {
	md := &MarkdownExporter{IncludeTimestamp: true}
	body, err := md.Export(rows)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(body)

	if len(matrices) > 0 {
		sb.WriteString("\n## Transition Probabilities\n")
		models := make([]string, 0, len(matrices))
		for model := range matrices {
			models = append(models, model)
		}
		// Keep the section order stable across runs.
		sort.Strings(models)

		for _, model := range models {
			m := matrices[model]
			sb.WriteString(fmt.Sprintf("\n### %s\n\n", model))
			sb.WriteString(fmt.Sprintf("%d transitions observed.\n\n", m.Total()))
			sb.WriteString("| Turn N \\ Turn N+1 |")
			for _, label := range outcome.Labels() {
				sb.WriteString(" " + label.Title() + " |")
			}
			sb.WriteString("\n|---|")
			for range outcome.Labels() {
				sb.WriteString("---|")
			}
			sb.WriteString("\n")
			for row, label := range outcome.Labels() {
				sb.WriteString("| " + label.Title() + " |")
				for col := 0; col < outcome.NumLabels; col++ {
					sb.WriteString(fmt.Sprintf(" %.2f |", m.Probs[row][col]))
				}
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

// RenderHTML converts the Markdown report into a standalone HTML page.
func RenderHTML(markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("convert report to HTML: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString("<title>Turnwise Report</title>\n")
	page.WriteString("<style>body{font-family:sans-serif;max-width:72em;margin:2em auto;padding:0 1em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:0.3em 0.6em}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// WriteReportFiles writes the Markdown report and its HTML rendering.
func WriteReportFiles(mdPath, htmlPath string, rows []outcome.DistributionRow, matrices map[string]outcome.TransitionMatrix) error {
	markdown, err := BuildReport(rows, matrices)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(mdPath, []byte(markdown)); err != nil {
		return err
	}
	html, err := RenderHTML(markdown)
	if err != nil {
		return err
	}
	return filelock.AtomicWrite(htmlPath, html)
}
