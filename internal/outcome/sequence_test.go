package outcome

import (
	"testing"
)

func TestReconstruct_GroupsAndSorts(t *testing.T) {
	coll := &Collection{
		Source: "persistence_run.json",
		ByModel: map[string][]TurnRecord{
			"m": {
				{TurnIndex: 2, RawLabel: "ADMISSION", DedupeKey: "s1"},
				{TurnIndex: 0, RawLabel: "FABRICATION", DedupeKey: "s1"},
				{TurnIndex: 1, RawLabel: "fab", DedupeKey: "s1"},
				{TurnIndex: 0, RawLabel: "null", DedupeKey: "s2"},
			},
		},
	}

	models := Reconstruct(coll)
	seq := models["m"]["s1"]
	if len(seq) != 3 {
		t.Fatalf("sequence s1 length = %d, want 3", len(seq))
	}
	want := []Label{Fabrication, Fabrication, Admission}
	for i, turn := range seq {
		if turn.Index != i {
			t.Errorf("turn %d index = %d, want %d", i, turn.Index, i)
		}
		if turn.Label != want[i] {
			t.Errorf("turn %d label = %s, want %s", i, turn.Label, want[i])
		}
	}
	if len(models["m"]["s2"]) != 1 {
		t.Errorf("sequence s2 length = %d, want 1 (short sequences are retained)", len(models["m"]["s2"]))
	}
}

func TestReconstruct_StableTieOrder(t *testing.T) {
	// Two turns share turn_index 1; their relative input order must survive
	// the sort. The labels differ so the order is observable.
	coll := &Collection{
		ByModel: map[string][]TurnRecord{
			"m": {
				{TurnIndex: 1, RawLabel: "ADMISSION", DedupeKey: "s"},
				{TurnIndex: 0, RawLabel: "FABRICATION", DedupeKey: "s"},
				{TurnIndex: 1, RawLabel: "NULL", DedupeKey: "s"},
			},
		},
	}

	seq := Reconstruct(coll)["m"]["s"]
	want := []Label{Fabrication, Admission, Null}
	if len(seq) != 3 {
		t.Fatalf("sequence length = %d, want 3", len(seq))
	}
	for i, turn := range seq {
		if turn.Label != want[i] {
			t.Errorf("position %d = %s, want %s", i, turn.Label, want[i])
		}
	}
}

func TestReconstruct_DropsUnrecognizedTurns(t *testing.T) {
	coll := &Collection{
		ByModel: map[string][]TurnRecord{
			"m": {
				{TurnIndex: 0, RawLabel: "FABRICATION", DedupeKey: "s"},
				{TurnIndex: 1, RawLabel: "MAYBE", DedupeKey: "s"}, // dropped, not inserted
				{TurnIndex: 2, RawLabel: "ADMISSION", DedupeKey: "s"},
				{TurnIndex: 0, RawLabel: "", DedupeKey: "empty-only"},
			},
			"noise": {
				{TurnIndex: 0, RawLabel: "GARBAGE", DedupeKey: "x"},
			},
		},
	}

	models := Reconstruct(coll)
	seq := models["m"]["s"]
	if len(seq) != 2 {
		t.Fatalf("sequence length = %d, want 2 (unrecognized turn dropped)", len(seq))
	}
	if seq[0].Label != Fabrication || seq[1].Label != Admission {
		t.Errorf("sequence = %v, want [FABRICATION ADMISSION]", seq)
	}
	if _, exists := models["m"]["empty-only"]; exists {
		t.Error("sequence left empty after filtering should be omitted")
	}
	if _, exists := models["noise"]; exists {
		t.Error("model left empty after filtering should be omitted")
	}
}

func TestReconstruct_EmptyCollection(t *testing.T) {
	models := Reconstruct(&Collection{ByModel: map[string][]TurnRecord{}})
	if len(models) != 0 {
		t.Errorf("Reconstruct(empty) = %v, want empty", models)
	}
}

func TestMergeSequences_KeysBySource(t *testing.T) {
	a := ModelSequences{
		"m": {"s1": {{0, Fabrication}}},
	}
	b := ModelSequences{
		"m": {"s1": {{0, Admission}}},
		"other": {"s2": {{0, Null}}},
	}

	merged := MergeSequences(map[string]ModelSequences{"fileA": a, "fileB": b})
	if len(merged["m"]) != 2 {
		t.Fatalf("model m sequences = %d, want 2 (same identity from two sources kept apart)", len(merged["m"]))
	}
	if seq := merged["m"]["fileA::s1"]; len(seq) != 1 || seq[0].Label != Fabrication {
		t.Errorf("fileA::s1 = %v, want [FABRICATION]", seq)
	}
	if seq := merged["m"]["fileB::s1"]; len(seq) != 1 || seq[0].Label != Admission {
		t.Errorf("fileB::s1 = %v, want [ADMISSION]", seq)
	}
	if len(merged["other"]) != 1 {
		t.Errorf("model other sequences = %d, want 1", len(merged["other"]))
	}
}

func TestMergeSequences_Commutative(t *testing.T) {
	a := ModelSequences{"m": {"s": {{0, Fabrication}, {1, Admission}}}}
	b := ModelSequences{"m": {"s": {{0, Null}}}}

	x := MergeSequences(map[string]ModelSequences{"a": a, "b": b})
	y := MergeSequences(map[string]ModelSequences{"b": b, "a": a})

	if len(x["m"]) != len(y["m"]) {
		t.Fatalf("merge not commutative: %d vs %d sequences", len(x["m"]), len(y["m"]))
	}
	for key, seq := range x["m"] {
		other := y["m"][key]
		if len(other) != len(seq) {
			t.Errorf("sequence %s differs across merge orders", key)
		}
	}
}

func TestModels_SortedOrder(t *testing.T) {
	ms := ModelSequences{"zeta": {}, "alpha": {}, "mid": {}}
	got := ms.Models()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Models() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Models()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
