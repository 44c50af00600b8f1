package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/smallnest/langfix/schema"
)

// Decode extracts a JSON object from raw and validates it against s.
//
// Empty text, malformed JSON, non-object values, missing required fields and
// wrongly typed values are StructuralErrors. Length, range and enum
// violations are ConstraintErrors.
func Decode(raw string, s *schema.Schema) (schema.Record, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &StructuralError{Raw: raw, Reason: "output is empty"}
	}

	payload := ExtractJSON(raw)

	value, err := unmarshal(payload)
	if err != nil {
		return nil, &StructuralError{
			Raw:    raw,
			Reason: fmt.Sprintf("output is not valid JSON: %v", err),
			Err:    err,
		}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &StructuralError{
			Raw:    raw,
			Reason: fmt.Sprintf("expected a JSON object, got %s", describeJSON(value)),
		}
	}
	rec := schema.Record(obj)

	violations := s.Validate(rec)
	if len(violations) == 0 {
		return settleNumbers(rec, s), nil
	}

	var shape, limits []schema.Violation
	for _, v := range violations {
		if v.Rule == schema.RuleRequired || v.Rule == schema.RuleType {
			shape = append(shape, v)
		} else {
			limits = append(limits, v)
		}
	}
	if len(shape) > 0 {
		return nil, &StructuralError{
			Raw:        raw,
			Reason:     joinViolations(shape),
			Violations: shape,
		}
	}
	return nil, &ConstraintError{Raw: raw, Record: rec, Violations: limits}
}

// unmarshal decodes a single JSON value, keeping numbers as json.Number so
// large integers survive.
func unmarshal(payload string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after the JSON value")
	}
	return value, nil
}

// settleNumbers replaces the json.Number values of schema fields with
// int64 for integers and float64 for numbers. Integers outside int64 stay
// json.Number.
func settleNumbers(rec schema.Record, s *schema.Schema) schema.Record {
	for _, f := range s.Fields() {
		n, ok := rec[f.Name].(json.Number)
		if !ok {
			continue
		}
		switch f.Type {
		case schema.TypeInteger:
			if i, err := n.Int64(); err == nil {
				rec[f.Name] = i
			}
		case schema.TypeNumber:
			if v, err := n.Float64(); err == nil {
				rec[f.Name] = v
			}
		}
	}
	return rec
}

func describeJSON(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
