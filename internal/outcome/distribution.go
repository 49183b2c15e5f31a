package outcome

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DistributionRow is one aggregated statistics row: per-canonical-label
// counts and percentages for a (model, domain, source) triple. When N is
// zero the percentages are undefined, not zero: HasPcts is false and
// serializers emit a missing value.
type DistributionRow struct {
	Model   string
	Domain  string
	Source  string
	N       int
	Counts  [NumLabels]int
	Pcts    [NumLabels]float64
	HasPcts bool
}

// countKeys lists, in priority order, the summary fields that may hold the
// per-label count mapping. The first present mapping wins.
var countKeys = []string{"labels", "counts", "label_counts", "label_distribution", "response_counts"}

// AggregateSummary turns one summary record of arbitrary shape into
// distribution rows. A record with a nested by_model mapping emits one row
// per contained model; otherwise exactly one row for the whole record.
func AggregateSummary(data []byte, source string) ([]DistributionRow, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", source, err)
	}

	domain := DomainForSource(source)

	if nested, present := doc["by_model"]; present {
		byModel, ok := nested.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("summary %s: by_model is not a mapping: %w", source, ErrUnknownShape)
		}
		rows := make([]DistributionRow, 0, len(byModel))
		for name, value := range byModel {
			record, ok := value.(map[string]any)
			if !ok {
				continue
			}
			row := rowFromRecord(record, source, domain)
			if row.Model == UnknownModel {
				row.Model = name
			}
			rows = append(rows, row)
		}
		SortRows(rows)
		return rows, nil
	}

	return []DistributionRow{rowFromRecord(doc, source, domain)}, nil
}

// rowFromRecord applies count extraction, model resolution, total resolution,
// and the percentage policy to a single summary record.
func rowFromRecord(record map[string]any, source, domain string) DistributionRow {
	row := DistributionRow{
		Model:  resolveModel(record),
		Domain: domain,
		Source: source,
		Counts: extractCounts(record),
	}

	row.N = resolveTotal(record, row.Counts)
	if row.N > 0 {
		for i, c := range row.Counts {
			row.Pcts[i] = float64(c) / float64(row.N)
		}
		row.HasPcts = true
	}
	return row
}

// extractCounts finds the first present count mapping and canonicalizes its
// keys. Canonical labels absent from the mapping default to 0; several raw
// keys aliasing one canonical label sum, since canonicalization can merge
// keys the source kept distinct. No mapping at all yields all zeros.
func extractCounts(record map[string]any) [NumLabels]int {
	var counts [NumLabels]int
	for _, key := range countKeys {
		value, present := record[key]
		if !present {
			continue
		}
		mapping, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for raw, v := range mapping {
			label, ok := Canonicalize(raw)
			if !ok {
				continue
			}
			if n, ok := coerceInt(v); ok {
				counts[label.Index()] += n
			}
		}
		break
	}
	return counts
}

// resolveModel prefers an explicit model field, then model_name, then the
// unknown pseudo-model.
func resolveModel(record map[string]any) string {
	if m := stringField(record, "model"); m != "" {
		return m
	}
	if m := stringField(record, "model_name"); m != "" {
		return m
	}
	return UnknownModel
}

// resolveTotal prefers an explicit n, then total, then the sum of the
// extracted counts.
func resolveTotal(record map[string]any, counts [NumLabels]int) int {
	if v, present := record["n"]; present {
		if n, ok := coerceInt(v); ok {
			return n
		}
	}
	if v, present := record["total"]; present {
		if n, ok := coerceInt(v); ok {
			return n
		}
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	return sum
}

// ShortModel returns the model identifier's basename after the last slash
// ("anthropic/model-a" -> "model-a"), for figure titles and file names.
func ShortModel(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// DomainForSource infers the domain tag from the source file's name using
// the harness's fixed prefix convention.
func DomainForSource(source string) string {
	base := filepath.Base(source)
	switch {
	case strings.HasPrefix(base, "cross_domain"):
		return "cross_domain"
	case strings.HasPrefix(base, "persistence"):
		return "persistence"
	default:
		return "unknown"
	}
}

// SortRows orders rows by (model, domain, source) so output is deterministic
// regardless of source processing order.
func SortRows(rows []DistributionRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Model != rows[j].Model {
			return rows[i].Model < rows[j].Model
		}
		if rows[i].Domain != rows[j].Domain {
			return rows[i].Domain < rows[j].Domain
		}
		return rows[i].Source < rows[j].Source
	})
}

// ModelTotal is the across-domain rollup for one model, feeding the
// proportions bar chart.
type ModelTotal struct {
	Model   string
	N       int
	Counts  [NumLabels]int
	Pcts    [NumLabels]float64
	HasPcts bool
}

// ModelTotals sums rows per model, recomputes N as the sum of all counted
// labels, and derives per-label proportions. Result is sorted by model name.
func ModelTotals(rows []DistributionRow) []ModelTotal {
	byModel := make(map[string]*ModelTotal)
	for _, row := range rows {
		total := byModel[row.Model]
		if total == nil {
			total = &ModelTotal{Model: row.Model}
			byModel[row.Model] = total
		}
		for i, c := range row.Counts {
			total.Counts[i] += c
		}
	}

	totals := make([]ModelTotal, 0, len(byModel))
	for _, total := range byModel {
		for _, c := range total.Counts {
			total.N += c
		}
		if total.N > 0 {
			for i, c := range total.Counts {
				total.Pcts[i] = float64(c) / float64(total.N)
			}
			total.HasPcts = true
		}
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Model < totals[j].Model
	})
	return totals
}
