package outcome

import (
	"errors"
	"testing"
)

func TestDecodeCollection_ByModelShape(t *testing.T) {
	data := []byte(`{
		"anthropic/model-a": [
			{"turn_index": 0, "classification": "FABRICATION", "dedupe_key": "c1:0"},
			{"turn_index": 1, "classification": "ADMISSION", "dedupe_key": "c1:0"}
		],
		"anthropic/model-b": [
			{"turn_index": 0, "classification": "NULL", "dedupe_key": "c2:0"}
		]
	}`)

	coll, err := DecodeCollection(data, "persistence_run.json")
	if err != nil {
		t.Fatalf("DecodeCollection() error = %v", err)
	}
	if coll.Shape != ShapeByModel {
		t.Errorf("Shape = %s, want by-model", coll.Shape)
	}
	if len(coll.ByModel["anthropic/model-a"]) != 2 {
		t.Errorf("model-a records = %d, want 2", len(coll.ByModel["anthropic/model-a"]))
	}
	if len(coll.ByModel["anthropic/model-b"]) != 1 {
		t.Errorf("model-b records = %d, want 1", len(coll.ByModel["anthropic/model-b"]))
	}
	if coll.Records() != 3 {
		t.Errorf("Records() = %d, want 3", coll.Records())
	}
}

func TestDecodeCollection_ResultsWrapperUnwraps(t *testing.T) {
	data := []byte(`{"results": {"m": [{"turn_index": 0, "label": "fab"}]}}`)

	coll, err := DecodeCollection(data, "wrapped.json")
	if err != nil {
		t.Fatalf("DecodeCollection() error = %v", err)
	}
	if coll.Shape != ShapeByModel {
		t.Errorf("Shape = %s, want by-model", coll.Shape)
	}
	if len(coll.ByModel["m"]) != 1 {
		t.Errorf("records under m = %d, want 1", len(coll.ByModel["m"]))
	}
}

func TestDecodeCollection_FlatShape(t *testing.T) {
	data := []byte(`[
		{"turn_index": 0, "label": "fab", "model": "m1"},
		{"turn_index": 0, "label": "adm", "model": "m2"},
		{"turn_index": 1, "label": "null"}
	]`)

	coll, err := DecodeCollection(data, "flat.json")
	if err != nil {
		t.Fatalf("DecodeCollection() error = %v", err)
	}
	if coll.Shape != ShapeFlat {
		t.Errorf("Shape = %s, want flat", coll.Shape)
	}
	if len(coll.ByModel["m1"]) != 1 || len(coll.ByModel["m2"]) != 1 {
		t.Errorf("per-model grouping wrong: %v", coll.ByModel)
	}
	// A flat record without a model lands under the unknown pseudo-model.
	if len(coll.ByModel[UnknownModel]) != 1 {
		t.Errorf("untagged records = %d, want 1 under %q", len(coll.ByModel[UnknownModel]), UnknownModel)
	}
}

func TestDecodeCollection_ItemsShape(t *testing.T) {
	data := []byte(`{"items": [
		{"turn_index": 0, "state": "silent_refusal"},
		{"turn_index": 1, "state": "admission"}
	]}`)

	coll, err := DecodeCollection(data, "items.json")
	if err != nil {
		t.Fatalf("DecodeCollection() error = %v", err)
	}
	if coll.Shape != ShapeItems {
		t.Errorf("Shape = %s, want items", coll.Shape)
	}
	if len(coll.ByModel[UnknownModel]) != 2 {
		t.Errorf("pseudo-model records = %d, want 2", len(coll.ByModel[UnknownModel]))
	}
}

func TestDecodeCollection_UnknownShape(t *testing.T) {
	cases := [][]byte{
		[]byte(`42`),
		[]byte(`"just a string"`),
		[]byte(`{"m": "not a list"}`),
		[]byte(`{"items": {"not": "a list"}}`),
	}
	for _, data := range cases {
		_, err := DecodeCollection(data, "bad.json")
		if !errors.Is(err, ErrUnknownShape) {
			t.Errorf("DecodeCollection(%s) error = %v, want ErrUnknownShape", data, err)
		}
	}
}

func TestDecodeCollection_MalformedJSON(t *testing.T) {
	_, err := DecodeCollection([]byte(`{"truncated`), "broken.json")
	if err == nil {
		t.Fatal("DecodeCollection() error = nil, want decode error")
	}
}

func TestSequenceKey_FallbackChain(t *testing.T) {
	tests := []struct {
		name string
		rec  TurnRecord
		want string
	}{
		{"dedupe key wins", TurnRecord{DedupeKey: "dk", SequenceID: "sq", ID: "id"}, "dk"},
		{"sequence id next", TurnRecord{SequenceID: "sq", ID: "id"}, "sq"},
		{"plain id next", TurnRecord{ID: "id", ConditionID: "c", Seed: 3}, "id"},
		{"composite fallback", TurnRecord{ConditionID: "c", Seed: 3}, "c:3"},
		{"all absent uses sentinels", TurnRecord{}, "default:0"},
		{"seed alone differentiates", TurnRecord{Seed: 7}, "default:7"},
	}
	for _, tt := range tests {
		if got := tt.rec.SequenceKey(); got != tt.want {
			t.Errorf("%s: SequenceKey() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRecordFromValue_LabelChain(t *testing.T) {
	tests := []struct {
		name string
		elem map[string]any
		want string
	}{
		{"classification first", map[string]any{"classification": "FAB", "label": "ADM"}, "FAB"},
		{"label second", map[string]any{"label": "ADM", "state": "NULL"}, "ADM"},
		{"state last", map[string]any{"state": "NULL"}, "NULL"},
		{"empty value falls through", map[string]any{"classification": "", "label": "ADM"}, "ADM"},
		{"nothing present", map[string]any{"turn_index": float64(1)}, ""},
	}
	for _, tt := range tests {
		rec, ok := recordFromValue(tt.elem)
		if !ok {
			t.Errorf("%s: recordFromValue() not ok", tt.name)
			continue
		}
		if rec.RawLabel != tt.want {
			t.Errorf("%s: RawLabel = %q, want %q", tt.name, rec.RawLabel, tt.want)
		}
	}
}

func TestRecordFromValue_NumericIdentityCoerces(t *testing.T) {
	rec, ok := recordFromValue(map[string]any{"id": float64(12), "label": "fab"})
	if !ok {
		t.Fatal("recordFromValue() not ok")
	}
	if rec.ID != "12" {
		t.Errorf("ID = %q, want \"12\"", rec.ID)
	}
	if rec.SequenceKey() != "12" {
		t.Errorf("SequenceKey() = %q, want \"12\"", rec.SequenceKey())
	}
}

func TestRecordFromValue_SkipsNonObjects(t *testing.T) {
	for _, elem := range []any{"string", float64(1), []any{}, nil} {
		if _, ok := recordFromValue(elem); ok {
			t.Errorf("recordFromValue(%v) ok = true, want false", elem)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		v    any
		want int
		ok   bool
	}{
		{float64(5), 5, true},
		{float64(5.9), 5, true},
		{"7", 7, true},
		{"seven", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := coerceInt(tt.v)
		if got != tt.want || ok != tt.ok {
			t.Errorf("coerceInt(%v) = (%d, %t), want (%d, %t)", tt.v, got, ok, tt.want, tt.ok)
		}
	}
}
