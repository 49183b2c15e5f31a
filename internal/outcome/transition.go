package outcome

// TransitionMatrix holds, per ordered canonical-label pair, the number of
// observed consecutive turn pairs and the row-normalized probabilities.
// Rows index the label at turn N, columns the label at turn N+1, both in
// declared label order. A matrix is rebuilt fresh from its sequences on every
// run and never mutated incrementally.
type TransitionMatrix struct {
	Counts [NumLabels][NumLabels]int
	Probs  [NumLabels][NumLabels]float64
}

// RowSum returns the total outgoing transition count for one row.
func (m *TransitionMatrix) RowSum(row int) int {
	sum := 0
	for col := 0; col < NumLabels; col++ {
		sum += m.Counts[row][col]
	}
	return sum
}

// Total returns the number of counted transitions.
func (m *TransitionMatrix) Total() int {
	total := 0
	for row := 0; row < NumLabels; row++ {
		total += m.RowSum(row)
	}
	return total
}

// BuildTransitions walks every sequence's consecutive turn pairs and counts
// label transitions, then row-normalizes. Both ends of a pair must be
// canonical to count; reconstruction already guarantees that, but the check
// stays as an invariant. A row with no support normalizes to all zeros
// rather than NaN: the matrix feeds a bounded-range rendering, and a
// zero-support row deliberately reports zero probability mass. Safe to call
// with an empty set: the result is all-zero matrices, not an error.
func BuildTransitions(sequences SequenceSet) TransitionMatrix {
	var m TransitionMatrix
	for _, seq := range sequences {
		for i := 0; i+1 < len(seq); i++ {
			from := seq[i].Label.Index()
			to := seq[i+1].Label.Index()
			if from < 0 || to < 0 {
				continue
			}
			m.Counts[from][to]++
		}
	}

	for row := 0; row < NumLabels; row++ {
		sum := m.RowSum(row)
		if sum == 0 {
			continue
		}
		for col := 0; col < NumLabels; col++ {
			m.Probs[row][col] = float64(m.Counts[row][col]) / float64(sum)
		}
	}
	return m
}

// BuildAllTransitions builds one matrix per model.
func BuildAllTransitions(models ModelSequences) map[string]TransitionMatrix {
	matrices := make(map[string]TransitionMatrix, len(models))
	for model, set := range models {
		matrices[model] = BuildTransitions(set)
	}
	return matrices
}
