// Package outcome implements the canonical label taxonomy and the analysis
// engine built on it: reconstructing ordered per-conversation sequences from
// heterogeneous harness output, deriving turn-by-turn transition matrices,
// and aggregating per-model label distributions.
package outcome

import (
	"regexp"
	"strings"
)

// Label is one of the four canonical outcome categories assigned to a
// classified turn. The set is closed; anything else is unrecognized.
type Label string

// Canonical labels, in declared matrix order.
const (
	Fabrication   Label = "FABRICATION"
	Admission     Label = "ADMISSION"
	SilentRefusal Label = "SILENT_REFUSAL"
	Null          Label = "NULL"
)

// NumLabels is the size of the canonical label set.
const NumLabels = 4

// labelOrder fixes the row/column ordering used by every matrix and table.
var labelOrder = [NumLabels]Label{Fabrication, Admission, SilentRefusal, Null}

// Labels returns the canonical labels in declared order.
func Labels() [NumLabels]Label {
	return labelOrder
}

// Index returns the label's position in the declared order, or -1 if the
// label is not canonical.
func (l Label) Index() int {
	for i, lab := range labelOrder {
		if lab == l {
			return i
		}
	}
	return -1
}

// Valid reports whether the label belongs to the canonical set.
func (l Label) Valid() bool {
	return l.Index() >= 0
}

// String returns the label's wire form.
func (l Label) String() string {
	return string(l)
}

// Title returns a human-readable form for legends and axis labels
// ("SILENT_REFUSAL" -> "Silent Refusal").
func (l Label) Title() string {
	words := strings.Split(string(l), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = w[:1] + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// separatorRun matches runs of spaces and hyphens inside a token.
var separatorRun = regexp.MustCompile(`[\s-]+`)

// normalizeToken prepares a raw label token for rule matching: trim
// surrounding whitespace, upper-case, and collapse internal space/hyphen runs
// to a single underscore ("silent refusal" and "Silent-Refusal" both become
// "SILENT_REFUSAL").
func normalizeToken(raw string) string {
	tok := strings.ToUpper(strings.TrimSpace(raw))
	return separatorRun.ReplaceAllString(tok, "_")
}

// canonRule is one step of the canonicalization policy. Rules are evaluated
// in order and the first match wins; the order is part of the contract, not
// an implementation detail. Fabrication matching runs first because no other
// canonical label may ever claim a "FAB"-like token, and so on down the list.
type canonRule struct {
	name  string
	apply func(tok string) (Label, bool)
}

var canonRules = []canonRule{
	{
		name: "fabrication",
		apply: func(tok string) (Label, bool) {
			if strings.Contains(tok, "FAB") || strings.Contains(tok, "HALLUCIN") {
				return Fabrication, true
			}
			return "", false
		},
	},
	{
		name: "admission",
		apply: func(tok string) (Label, bool) {
			if strings.Contains(tok, "ADM") || strings.Contains(tok, "ADMIT") {
				return Admission, true
			}
			return "", false
		},
	},
	{
		name: "silent-refusal",
		apply: func(tok string) (Label, bool) {
			if strings.Contains(tok, "SILENT") || tok == "REF" || tok == "REFUSAL" || tok == "SILENTREFUSAL" {
				return SilentRefusal, true
			}
			return "", false
		},
	},
	{
		name: "null",
		apply: func(tok string) (Label, bool) {
			if strings.Contains(tok, "NULL") || tok == "NONE" || tok == "EMPTY" {
				return Null, true
			}
			return "", false
		},
	},
	{
		// Safety net for tokens that are already canonical. Unreachable for
		// the current four names (each is claimed by an earlier rule) but the
		// policy keeps the step so the list stays correct if the substring
		// rules ever narrow.
		name: "exact-canonical",
		apply: func(tok string) (Label, bool) {
			if l := Label(tok); l.Valid() {
				return l, true
			}
			return "", false
		},
	},
}

// Canonicalize maps a raw label token of unknown shape onto the canonical
// set. The second return is false when the token is absent, empty, or matched
// by no rule. The function is total: it never fails, it only declines.
func Canonicalize(raw string) (Label, bool) {
	tok := normalizeToken(raw)
	if tok == "" {
		return "", false
	}
	for _, rule := range canonRules {
		if label, ok := rule.apply(tok); ok {
			return label, true
		}
	}
	return "", false
}
