// Package figures renders the two analysis figures as SVG: a per-model
// transition-probability heatmap and a grouped bar chart of per-model label
// proportions.
package figures

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	svg "github.com/ajstarks/svgo"

	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/outcome"
)

const (
	cellSize      = 90
	heatmapMargin = 110
	colorbarWidth = 24
)

// rampColor maps a probability in [0,1] onto a sequential yellow-to-red ramp.
func rampColor(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	// Endpoints of the YlOrRd ramp.
	r := int(255 + v*(189-255))
	g := int(255 + v*(0-255))
	b := int(178 + v*(38-178))
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

// cellTextColor keeps the value label readable on the ramp: dark text on
// light cells, light text on dark ones.
func cellTextColor(v float64) string {
	if v < 0.5 {
		return "black"
	}
	return "white"
}

// RenderHeatmap draws one model's 4x4 transition-probability grid. Rows are
// the turn-N label, columns the turn-N+1 label, both in declared order. Cells
// print their value only when it is above zero; the grid carries a shared
// colorbar on the right.
func RenderHeatmap(w io.Writer, model string, m outcome.TransitionMatrix) {
	grid := cellSize * outcome.NumLabels
	width := heatmapMargin + grid + 60 + colorbarWidth + 60
	height := heatmapMargin + grid + 70

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")

	canvas.Text(heatmapMargin+grid/2, 30, outcome.ShortModel(model),
		"text-anchor:middle;font-size:18px;font-family:sans-serif;font-weight:bold")

	for row := 0; row < outcome.NumLabels; row++ {
		for col := 0; col < outcome.NumLabels; col++ {
			v := m.Probs[row][col]
			x := heatmapMargin + col*cellSize
			y := heatmapMargin + row*cellSize
			canvas.Rect(x, y, cellSize, cellSize,
				fmt.Sprintf("fill:%s;stroke:white;stroke-width:1", rampColor(v)))
			if v > 0 {
				canvas.Text(x+cellSize/2, y+cellSize/2+5, fmt.Sprintf("%.2f", v),
					fmt.Sprintf("text-anchor:middle;font-size:14px;font-family:sans-serif;fill:%s", cellTextColor(v)))
			}
		}
	}

	// Axis tick labels.
	for i, label := range outcome.Labels() {
		cx := heatmapMargin + i*cellSize + cellSize/2
		canvas.TranslateRotate(cx, heatmapMargin+grid+14, 45)
		canvas.Text(0, 0, label.Title(), "text-anchor:start;font-size:11px;font-family:sans-serif")
		canvas.Gend()

		cy := heatmapMargin + i*cellSize + cellSize/2
		canvas.Text(heatmapMargin-8, cy+4, label.Title(),
			"text-anchor:end;font-size:11px;font-family:sans-serif")
	}

	// Axis titles.
	canvas.Text(heatmapMargin+grid/2, heatmapMargin+grid+62, "Turn N+1",
		"text-anchor:middle;font-size:13px;font-family:sans-serif")
	canvas.TranslateRotate(22, heatmapMargin+grid/2, -90)
	canvas.Text(0, 0, "Turn N", "text-anchor:middle;font-size:13px;font-family:sans-serif")
	canvas.Gend()

	drawColorbar(canvas, heatmapMargin+grid+40, heatmapMargin, grid)

	canvas.End()
}

// drawColorbar draws a vertical 0..1 ramp legend with end labels.
func drawColorbar(canvas *svg.SVG, x, y, height int) {
	steps := 50
	stepH := float64(height) / float64(steps)
	for i := 0; i < steps; i++ {
		v := 1 - float64(i)/float64(steps-1)
		sy := y + int(float64(i)*stepH)
		canvas.Rect(x, sy, colorbarWidth, int(stepH)+1, "fill:"+rampColor(v))
	}
	canvas.Rect(x, y, colorbarWidth, height, "fill:none;stroke:black;stroke-width:1")
	canvas.Text(x+colorbarWidth+6, y+10, "1.0", "font-size:11px;font-family:sans-serif")
	canvas.Text(x+colorbarWidth+6, y+height, "0.0", "font-size:11px;font-family:sans-serif")
}

// WriteHeatmapFiles renders one heatmap SVG per model into dir.
func WriteHeatmapFiles(dir string, matrices map[string]outcome.TransitionMatrix) error {
	for model, m := range matrices {
		var buf bytes.Buffer
		RenderHeatmap(&buf, model, m)
		path := filepath.Join(dir, "transitions_"+outcome.ShortModel(model)+".svg")
		if err := filelock.AtomicWrite(path, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
