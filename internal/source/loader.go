package source

import (
	"os"

	"github.com/meredith/turnwise/internal/outcome"
)

// Skip records one source file that could not be used and why. Skips are
// warnings, never fatal: the remaining sources still produce results.
type Skip struct {
	Path   string
	Reason error
}

// Result holds everything loaded from one scan of an input directory.
type Result struct {
	// Sequences maps source name to that file's reconstructed sequences.
	Sequences map[string]outcome.ModelSequences
	// Rows are the aggregated distribution rows across all summary files,
	// sorted for deterministic output.
	Rows []outcome.DistributionRow
	// Skipped lists files that failed to read or decode.
	Skipped []Skip
}

// Merged returns all sequence sources merged into one per-model mapping,
// keyed so identical identities from different files stay distinct.
func (r *Result) Merged() outcome.ModelSequences {
	return outcome.MergeSequences(r.Sequences)
}

// Empty reports whether the load produced no usable data at all.
func (r *Result) Empty() bool {
	return len(r.Sequences) == 0 && len(r.Rows) == 0
}

// Load reads and decodes every discovered file. Processing order does not
// affect the result: each file contributes independently and rows are sorted
// at the end.
func Load(files []File) *Result {
	result := &Result{Sequences: make(map[string]outcome.ModelSequences)}

	for _, file := range files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			result.Skipped = append(result.Skipped, Skip{Path: file.Path, Reason: err})
			continue
		}

		switch file.Kind {
		case KindSequences:
			coll, err := outcome.DecodeCollection(data, file.Name)
			if err != nil {
				result.Skipped = append(result.Skipped, Skip{Path: file.Path, Reason: err})
				continue
			}
			models := outcome.Reconstruct(coll)
			if len(models) > 0 {
				result.Sequences[file.Name] = models
			}

		case KindSummary:
			rows, err := outcome.AggregateSummary(data, file.Name)
			if err != nil {
				result.Skipped = append(result.Skipped, Skip{Path: file.Path, Reason: err})
				continue
			}
			result.Rows = append(result.Rows, rows...)
		}
	}

	outcome.SortRows(result.Rows)
	return result
}

// LoadDir scans a directory and loads whatever it finds.
func LoadDir(dir string) (*Result, error) {
	files, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	return Load(files), nil
}
