package outcome

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// CollectionShape identifies which of the supported input layouts a decoded
// record collection uses. Shape resolution happens exactly once per
// collection; downstream code never sniffs.
type CollectionShape int

const (
	// ShapeByModel is a mapping from model name to a list of per-turn records.
	ShapeByModel CollectionShape = iota
	// ShapeFlat is a flat list of per-turn records, each tagged with its own
	// model field.
	ShapeFlat
	// ShapeItems is a single list under a generic "items" field, treated as
	// one pseudo-model named "unknown".
	ShapeItems
)

// String returns a human-readable shape name.
func (s CollectionShape) String() string {
	switch s {
	case ShapeByModel:
		return "by-model"
	case ShapeFlat:
		return "flat"
	case ShapeItems:
		return "items"
	default:
		return "unknown"
	}
}

// UnknownModel is the pseudo-model assigned to records that carry no model
// field and to ShapeItems collections.
const UnknownModel = "unknown"

// ErrUnknownShape reports a record collection whose top-level layout matches
// none of the supported shapes.
var ErrUnknownShape = errors.New("unrecognized record collection shape")

// TurnRecord is one observed turn as decoded from a source file. Records are
// immutable once decoded; reconstruction reads them, it never writes them.
type TurnRecord struct {
	TurnIndex   int    // order within a sequence; absent decodes to 0
	RawLabel    string // first present of classification/label/state
	DedupeKey   string
	SequenceID  string
	ID          string
	ConditionID string
	Seed        int
	Model       string // only meaningful for flat-shaped collections
}

// SequenceKey resolves the record's sequence identity. Priority: explicit
// dedupe_key, then sequence_id, then id, then the composite condition:seed
// with sentinels "default"/0, so two records missing every explicit key
// belong to the same sequence unless condition_id or seed differ.
func (r TurnRecord) SequenceKey() string {
	if r.DedupeKey != "" {
		return r.DedupeKey
	}
	if r.SequenceID != "" {
		return r.SequenceID
	}
	if r.ID != "" {
		return r.ID
	}
	cond := r.ConditionID
	if cond == "" {
		cond = "default"
	}
	return fmt.Sprintf("%s:%d", cond, r.Seed)
}

// Collection is one decoded record collection from a single source. Whatever
// the input shape, records are normalized into a per-model grouping so the
// reconstructor only ever sees one layout.
type Collection struct {
	Shape   CollectionShape
	Source  string
	ByModel map[string][]TurnRecord
}

// Records returns the total number of decoded records across all models.
func (c *Collection) Records() int {
	n := 0
	for _, recs := range c.ByModel {
		n += len(recs)
	}
	return n
}

// DecodeCollection parses raw JSON into a Collection, classifying the shape
// once. A top-level object with a "results" key is unwrapped first (the
// harness wraps its per-model mapping that way). Anything that matches no
// supported shape returns ErrUnknownShape wrapped with detail.
func DecodeCollection(data []byte, source string) (*Collection, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	if obj, ok := doc.(map[string]any); ok {
		if results, present := obj["results"]; present {
			doc = results
		}
	}

	coll := &Collection{Source: source, ByModel: make(map[string][]TurnRecord)}

	switch v := doc.(type) {
	case []any:
		coll.Shape = ShapeFlat
		for _, elem := range v {
			rec, ok := recordFromValue(elem)
			if !ok {
				continue
			}
			model := rec.Model
			if model == "" {
				model = UnknownModel
			}
			coll.ByModel[model] = append(coll.ByModel[model], rec)
		}
		return coll, nil

	case map[string]any:
		if items, present := v["items"]; present {
			list, ok := items.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: items field is not a list: %w", source, ErrUnknownShape)
			}
			coll.Shape = ShapeItems
			for _, elem := range list {
				if rec, ok := recordFromValue(elem); ok {
					coll.ByModel[UnknownModel] = append(coll.ByModel[UnknownModel], rec)
				}
			}
			return coll, nil
		}

		coll.Shape = ShapeByModel
		for model, value := range v {
			list, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: value under model %q is not a record list: %w", source, model, ErrUnknownShape)
			}
			for _, elem := range list {
				if rec, ok := recordFromValue(elem); ok {
					coll.ByModel[model] = append(coll.ByModel[model], rec)
				}
			}
		}
		return coll, nil

	default:
		return nil, fmt.Errorf("%s: top-level %T: %w", source, doc, ErrUnknownShape)
	}
}

// labelKeys lists, in priority order, the record fields that may carry the
// raw label token. The first present non-empty value wins; a present-but-
// empty value falls through to the next key.
var labelKeys = []string{"classification", "label", "state"}

// recordFromValue decodes a single record element. Non-object elements are
// skipped; they cannot carry a label and would be dropped downstream anyway.
func recordFromValue(elem any) (TurnRecord, bool) {
	m, ok := elem.(map[string]any)
	if !ok {
		return TurnRecord{}, false
	}

	rec := TurnRecord{
		TurnIndex:   intField(m, "turn_index"),
		DedupeKey:   stringField(m, "dedupe_key"),
		SequenceID:  stringField(m, "sequence_id"),
		ID:          stringField(m, "id"),
		ConditionID: stringField(m, "condition_id"),
		Seed:        intField(m, "seed"),
		Model:       stringField(m, "model"),
	}
	if rec.Model == "" {
		rec.Model = stringField(m, "model_name")
	}
	for _, key := range labelKeys {
		if v := stringField(m, key); v != "" {
			rec.RawLabel = v
			break
		}
	}
	return rec, true
}

// stringField pulls a string-ish value. JSON numbers are rendered in decimal
// so numeric-keyed harness exports ("id": 12) still group correctly.
func stringField(m map[string]any, key string) string {
	v, present := m[key]
	if !present {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatJSONNumber(t)
	default:
		return ""
	}
}

// intField pulls an integer-ish value: JSON numbers truncate, numeric
// strings parse, anything else is 0.
func intField(m map[string]any, key string) int {
	v, present := m[key]
	if !present {
		return 0
	}
	n, _ := coerceInt(v)
	return n
}

// coerceInt converts the JSON value types that plausibly hold a count or
// index into an int.
func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// formatJSONNumber renders a decoded JSON number without a trailing ".0" for
// integral values.
func formatJSONNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
