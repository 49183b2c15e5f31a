package outcome

import (
	"sort"
)

// Turn is one ordered element of a reconstructed sequence.
type Turn struct {
	Index int
	Label Label
}

// Sequence is the ordered list of canonically labeled turns belonging to one
// reconstructed conversation. Sequences are always sorted by turn index,
// ascending and stable: ties keep their original input order. A sequence
// with fewer than two turns contributes no transitions but is still retained.
type Sequence []Turn

// SequenceSet maps sequence identity to Sequence for one model.
type SequenceSet map[string]Sequence

// ModelSequences maps model name to that model's sequence set.
type ModelSequences map[string]SequenceSet

// Models returns the model names in sorted order, for deterministic output.
func (ms ModelSequences) Models() []string {
	models := make([]string, 0, len(ms))
	for model := range ms {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// Reconstruct groups a collection's records into ordered per-model
// sequences. Turns whose label canonicalizes to unrecognized are dropped from
// the sequence entirely, so unknown-schema noise cannot pollute transition
// statistics. Models and sequences left empty after filtering are omitted.
func Reconstruct(coll *Collection) ModelSequences {
	result := make(ModelSequences)
	for model, records := range coll.ByModel {
		set := reconstructModel(records)
		if len(set) > 0 {
			result[model] = set
		}
	}
	return result
}

// reconstructModel builds the sequence set for one model's records. Each
// sequence is constructed and owned here; no accumulator escapes.
func reconstructModel(records []TurnRecord) SequenceSet {
	grouped := make(map[string][]Turn)
	for _, rec := range records {
		label, ok := Canonicalize(rec.RawLabel)
		if !ok {
			continue
		}
		key := rec.SequenceKey()
		grouped[key] = append(grouped[key], Turn{Index: rec.TurnIndex, Label: label})
	}

	set := make(SequenceSet, len(grouped))
	for key, turns := range grouped {
		sort.SliceStable(turns, func(i, j int) bool {
			return turns[i].Index < turns[j].Index
		})
		set[key] = Sequence(turns)
	}
	return set
}

// MergeSequences combines per-source reconstruction results into a single
// per-model mapping. Identities are re-keyed as "source::identity" so that
// identical sequence identities from different sources are never collapsed
// together. The merge is commutative: source order never affects the result.
func MergeSequences(bySource map[string]ModelSequences) ModelSequences {
	merged := make(ModelSequences)
	for source, models := range bySource {
		for model, set := range models {
			target := merged[model]
			if target == nil {
				target = make(SequenceSet)
				merged[model] = target
			}
			for identity, seq := range set {
				target[source+"::"+identity] = seq
			}
		}
	}
	return merged
}
