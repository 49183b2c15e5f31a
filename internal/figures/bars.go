package figures

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/outcome"
)

// labelColors assigns each canonical label a fixed bar color, in declared
// label order.
var labelColors = [outcome.NumLabels]string{
	"#d62728", // FABRICATION
	"#2ca02c", // ADMISSION
	"#7f7f7f", // SILENT_REFUSAL
	"#1f77b4", // NULL
}

const (
	barWidth   = 26
	barGap     = 6
	groupGap   = 40
	plotHeight = 280
	barMarginX = 70
	barMarginY = 50
)

// RenderBars draws a grouped bar chart of per-model label proportions: one
// group per model, one bar per canonical label, with a legend. Models whose
// proportions are undefined (no observations) draw an empty group.
func RenderBars(w io.Writer, totals []outcome.ModelTotal) {
	groupWidth := outcome.NumLabels*(barWidth+barGap) - barGap
	width := barMarginX + len(totals)*(groupWidth+groupGap) + 180
	height := barMarginY + plotHeight + 90

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")

	canvas.Text(width/2, 28, "Label proportions by model",
		"text-anchor:middle;font-size:16px;font-family:sans-serif;font-weight:bold")

	baseline := barMarginY + plotHeight

	// Y axis with 0.25 gridlines.
	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		y := baseline - int(frac*plotHeight)
		canvas.Line(barMarginX, y, barMarginX+len(totals)*(groupWidth+groupGap), y,
			"stroke:#ddd;stroke-width:1")
		canvas.Text(barMarginX-8, y+4, fmt.Sprintf("%.2f", frac),
			"text-anchor:end;font-size:11px;font-family:sans-serif")
	}

	for gi, total := range totals {
		gx := barMarginX + gi*(groupWidth+groupGap) + groupGap/2
		for li := 0; li < outcome.NumLabels; li++ {
			if !total.HasPcts {
				continue
			}
			h := int(total.Pcts[li] * plotHeight)
			x := gx + li*(barWidth+barGap)
			canvas.Rect(x, baseline-h, barWidth, h, "fill:"+labelColors[li])
		}
		canvas.TranslateRotate(gx+groupWidth/2, baseline+16, 30)
		canvas.Text(0, 0, outcome.ShortModel(total.Model),
			"text-anchor:start;font-size:11px;font-family:sans-serif")
		canvas.Gend()
	}

	// Legend on the right.
	lx := barMarginX + len(totals)*(groupWidth+groupGap) + 20
	for li, label := range outcome.Labels() {
		ly := barMarginY + li*24
		canvas.Rect(lx, ly, 14, 14, "fill:"+labelColors[li])
		canvas.Text(lx+20, ly+11, label.Title(), "font-size:12px;font-family:sans-serif")
	}

	canvas.End()
}

// WriteBarChart renders the grouped bar chart to path.
func WriteBarChart(path string, totals []outcome.ModelTotal) error {
	var buf bytes.Buffer
	RenderBars(&buf, totals)
	return filelock.AtomicWrite(path, buf.Bytes())
}
