package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/meredith/turnwise/internal/outcome"
)

// UseColor reports whether out is a terminal worth colorizing. Respects
// fatih/color's NO_COLOR handling.
func UseColor(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FormatMatrix renders one model's transition probabilities as an aligned
// terminal table. With color enabled, higher-probability cells render hotter
// (yellow above 0.25, red above 0.5) so the dominant transitions stand out.
func FormatMatrix(out io.Writer, model string, m outcome.TransitionMatrix, colorize bool) {
	bold := color.New(color.Bold)

	if colorize {
		fmt.Fprintf(out, "%s  (%d transitions)\n", bold.Sprint(model), m.Total())
	} else {
		fmt.Fprintf(out, "%s  (%d transitions)\n", model, m.Total())
	}

	fmt.Fprintf(out, "  %-16s", "from \\ to")
	for _, label := range outcome.Labels() {
		fmt.Fprintf(out, "%16s", label.Title())
	}
	fmt.Fprintln(out)

	for row, label := range outcome.Labels() {
		fmt.Fprintf(out, "  %-16s", label.Title())
		for col := 0; col < outcome.NumLabels; col++ {
			cell := fmt.Sprintf("%16.2f", m.Probs[row][col])
			if colorize {
				cell = colorizeCell(cell, m.Probs[row][col])
			}
			fmt.Fprint(out, cell)
		}
		fmt.Fprintln(out)
	}
}

func colorizeCell(cell string, v float64) string {
	switch {
	case v >= 0.5:
		return color.New(color.FgRed).Sprint(cell)
	case v >= 0.25:
		return color.New(color.FgYellow).Sprint(cell)
	case v > 0:
		return color.New(color.FgGreen).Sprint(cell)
	default:
		return cell
	}
}

// FormatRows renders distribution rows as an aligned terminal table with the
// same column set as the tables CSV. Undefined percentages print as a dash.
func FormatRows(out io.Writer, rows []outcome.DistributionRow, colorize bool) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No distribution rows.")
		return
	}

	header := fmt.Sprintf("  %-32s %-14s %6s", "model", "domain", "n")
	for _, label := range outcome.Labels() {
		header += fmt.Sprintf(" %14s", label.Title())
	}
	if colorize {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintln(out, header)

	for _, row := range rows {
		fmt.Fprintf(out, "  %-32s %-14s %6d", row.Model, row.Domain, row.N)
		for i, c := range row.Counts {
			if row.HasPcts {
				fmt.Fprintf(out, " %6d (%5.1f%%)", c, row.Pcts[i]*100)
			} else {
				fmt.Fprintf(out, " %6d (    –)", c)
			}
		}
		fmt.Fprintln(out)
	}
}
