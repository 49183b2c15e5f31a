// Package display renders user-facing warnings and terminal views of
// analysis results.
package display

import (
	"fmt"
	"io"
	"strings"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}
		for i, file := range w.Files {
			b.WriteString("      ")
			b.WriteString(fmt.Sprintf("%d. %s", i+1, file))
			b.WriteString("\n")
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	b.WriteString("\x1b[0m")
	fmt.Fprint(out, b.String())
}

// WarnEmptyInput creates the warning for an input directory that produced no
// usable records. Absence of data is surfaced, never treated as an error.
func WarnEmptyInput(dir string) Warning {
	return Warning{
		Title:      fmt.Sprintf("No usable result files found in %s", dir),
		Message:    "Expected persistence_*.json / cross_domain_*.json collections or *_stats.json summaries",
		Suggestion: "Point --input at the harness output directory, or check the file naming convention.",
	}
}

// WarnSkippedFiles creates the warning for source files that failed to decode
// and were skipped.
func WarnSkippedFiles(files []string) Warning {
	return Warning{
		Title:   fmt.Sprintf("Skipped %d unreadable source file(s)", len(files)),
		Message: "Processing continued with the remaining sources",
		Files:   files,
	}
}
