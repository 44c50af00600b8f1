package schema

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// Record is a decoded structured value keyed by field name.
type Record map[string]any

// Schema is an ordered, immutable set of fields.
type Schema struct {
	title    string
	fields   []Field
	index    map[string]int
	compiled *jsonschema.Schema
}

// New builds a schema. Field names must be unique and constraints consistent.
func New(title string, fields ...*Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %q has no fields", title)
	}
	s := &Schema{
		title:  title,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("schema %q: nil field", title)
		}
		if err := f.check(); err != nil {
			return nil, fmt.Errorf("schema %q: %w", title, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %q: duplicate field %q", title, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f.clone())
	}

	compiled, err := s.compile()
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", title, err)
	}
	s.compiled = compiled
	return s, nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	data, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("record.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("record.json")
}

// MustNew is like New but panics on an invalid definition.
func MustNew(title string, fields ...*Field) *Schema {
	s, err := New(title, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Title returns the schema title.
func (s *Schema) Title() string { return s.title }

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i := range s.fields {
		out[i] = s.fields[i].clone()
	}
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].clone(), true
}

// Violation is one failed constraint.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return v.Message
}

// Constraint rule names used in Violation.Rule.
const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMinimum   = "minimum"
	RuleMaximum   = "maximum"
	RuleEnum      = "enum"
)

// Validate checks rec against every field and returns all violations in
// field order. Unknown keys are ignored and null counts as missing. A nil
// result means rec is valid.
func (s *Schema) Validate(rec Record) []Violation {
	inst, err := instance(rec)
	if err != nil {
		return []Violation{{Rule: RuleType, Message: fmt.Sprintf("record is not JSON: %v", err)}}
	}

	err = s.compiled.Validate(inst)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Violation{{Rule: RuleType, Message: err.Error()}}
	}

	var out []Violation
	leaves(verr, func(e *jsonschema.ValidationError) {
		out = append(out, s.violations(e, rec)...)
	})
	slices.SortStableFunc(out, func(a, b Violation) int {
		if c := cmp.Compare(s.position(a.Field), s.position(b.Field)); c != 0 {
			return c
		}
		return cmp.Compare(ruleRank[a.Rule], ruleRank[b.Rule])
	})
	return out
}

var ruleRank = map[string]int{
	RuleRequired:  0,
	RuleType:      1,
	RuleMinLength: 2,
	RuleMaxLength: 3,
	RuleMinimum:   4,
	RuleMaximum:   5,
	RuleEnum:      6,
}

func (s *Schema) position(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return len(s.fields)
}

// instance converts rec into the value form the validator expects, with
// numbers kept as json.Number and null values dropped.
func instance(rec Record) (any, error) {
	present := make(map[string]any, len(rec))
	for k, v := range rec {
		if v != nil {
			present[k] = v
		}
	}
	data, err := json.Marshal(present)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func leaves(e *jsonschema.ValidationError, fn func(*jsonschema.ValidationError)) {
	if len(e.Causes) == 0 {
		fn(e)
		return
	}
	for _, c := range e.Causes {
		leaves(c, fn)
	}
}

// violations turns one failed keyword into violations worded for the model.
func (s *Schema) violations(e *jsonschema.ValidationError, rec Record) []Violation {
	if req, ok := e.ErrorKind.(*kind.Required); ok {
		out := make([]Violation, 0, len(req.Missing))
		for _, name := range req.Missing {
			out = append(out, Violation{
				Field:   name,
				Rule:    RuleRequired,
				Message: fmt.Sprintf("missing required field %q", name),
			})
		}
		return out
	}

	path := e.ErrorKind.KeywordPath()
	if len(e.InstanceLocation) == 0 || len(path) == 0 {
		return []Violation{{Rule: RuleType, Message: e.Error()}}
	}
	i, ok := s.index[e.InstanceLocation[0]]
	if !ok {
		return nil
	}
	f := &s.fields[i]
	v := rec[f.Name]

	switch path[len(path)-1] {
	case "type":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleType,
			Message: fmt.Sprintf("field %q must be %s, got %s", f.Name, f.Type, jsonTypeOf(v)),
		}}
	case "minLength":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleMinLength,
			Message: fmt.Sprintf("field %q has %d characters, fewer than the minimum %d", f.Name, runeCount(v), *f.MinLength),
		}}
	case "maxLength":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleMaxLength,
			Message: fmt.Sprintf("field %q has %d characters, more than the maximum %d", f.Name, runeCount(v), *f.MaxLength),
		}}
	case "minimum":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleMinimum,
			Message: fmt.Sprintf("field %q value %v is less than the minimum %v", f.Name, v, *f.Minimum),
		}}
	case "maximum":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleMaximum,
			Message: fmt.Sprintf("field %q value %v is greater than the maximum %v", f.Name, v, *f.Maximum),
		}}
	case "enum":
		return []Violation{{
			Field:   f.Name,
			Rule:    RuleEnum,
			Message: fmt.Sprintf("field %q must be one of [%s], got %q", f.Name, strings.Join(f.Enum, ", "), fmt.Sprint(v)),
		}}
	}
	return []Violation{{Field: f.Name, Rule: path[len(path)-1], Message: e.Error()}}
}

func runeCount(v any) int {
	str, _ := v.(string)
	return utf8.RuneCountInString(str)
}

func jsonTypeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	case json.Number, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
