// Package source discovers and loads result files produced by the evaluation
// harness. It classifies files by name, decodes them through the outcome
// package, and skips anything malformed with a warning instead of failing the
// whole run.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meredith/turnwise/internal/outcome"
)

// Kind says what a discovered file contains.
type Kind int

const (
	// KindSequences is a per-turn record collection feeding sequence
	// reconstruction (persistence_*.json, cross_domain_*.json without the
	// _stats suffix).
	KindSequences Kind = iota
	// KindSummary is an already-counted per-model summary feeding the
	// distribution aggregator (*_stats.json).
	KindSummary
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindSequences:
		return "sequences"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// File is one discovered result file.
type File struct {
	Path   string
	Name   string // basename, used as the source identifier downstream
	Kind   Kind
	Domain string
}

// ClassifyName maps a result file's basename onto a kind. The second return
// is false for files the harness convention does not cover; those are left
// alone rather than guessed at.
func ClassifyName(name string) (Kind, bool) {
	if !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	if strings.HasSuffix(name, "_stats.json") {
		return KindSummary, true
	}
	if strings.HasPrefix(name, "persistence") || strings.HasPrefix(name, "cross_domain") {
		return KindSequences, true
	}
	return 0, false
}

// Scan walks the input directory and returns the classifiable result files in
// sorted path order. An empty or all-unclassifiable directory returns an
// empty slice and no error; absence of data is the caller's warning to
// surface, not a failure here.
func Scan(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("access input directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	var files []File
	err = filepath.Walk(dir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		kind, ok := ClassifyName(name)
		if !ok {
			return nil
		}
		files = append(files, File{
			Path:   path,
			Name:   name,
			Kind:   kind,
			Domain: outcome.DomainForSource(name),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input directory %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
