package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// FromStruct derives a schema from the exported fields of struct type T.
//
// Field names come from the json tag ("-" skips the field). Constraints use
// the jsonschema tag and descriptions the jsonschema_description tag:
//
//	Reason string `json:"reason" jsonschema_description:"why it fits" jsonschema:"minLength=15,maxLength=25"`
//
// Supported constraints are minLength, maxLength, minimum, maximum and enum
// (repeated, enum=a,enum=b). Pointer fields and fields tagged
// json:",omitempty" are optional. Sized integer fields are bounded by the
// range of their Go type.
func FromStruct[T any]() (*Schema, error) {
	var zero T
	return FromType(reflect.TypeOf(zero))
}

// FromType is the reflection form of FromStruct.
func FromType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot derive schema from nil type")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot derive schema from %s: not a struct", t)
	}

	// reject what a flat record cannot hold before reflecting
	type member struct {
		name     string
		typ      reflect.Type
		optional bool
	}
	var members []member
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, omitempty := jsonName(sf)
		if name == "-" {
			continue
		}
		ft := sf.Type
		optional := omitempty
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			optional = true
		}
		if _, err := kindToType(ft.Kind()); err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if err := checkTag(sf.Tag.Get("jsonschema")); err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		members = append(members, member{name: name, typ: ft, optional: optional})
	}

	doc, err := reflectObject(t)
	if err != nil {
		return nil, err
	}

	fields := make([]*Field, 0, len(members))
	for _, m := range members {
		p, ok := doc.Properties[m.name]
		if !ok {
			return nil, fmt.Errorf("field %q missing from reflected schema", m.name)
		}
		f, err := p.field(m.name)
		if err != nil {
			return nil, err
		}
		if m.optional || !doc.required(m.name) {
			f.Optional()
		}
		boundByKind(f, m.typ)
		fields = append(fields, f)
	}

	return New(t.Name(), fields...)
}

// objectDoc and propertyDoc read back the keywords FromType understands from
// the reflected JSON Schema.
type objectDoc struct {
	Properties map[string]propertyDoc `json:"properties"`
	Required   []string               `json:"required"`
}

type propertyDoc struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	MinLength   *int     `json:"minLength"`
	MaxLength   *int     `json:"maxLength"`
	Minimum     *float64 `json:"minimum"`
	Maximum     *float64 `json:"maximum"`
	Enum        []any    `json:"enum"`
}

func reflectObject(t reflect.Type) (*objectDoc, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	data, err := json.Marshal(r.ReflectFromType(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}
	var doc objectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to read reflected schema: %w", err)
	}
	return &doc, nil
}

func (d *objectDoc) required(name string) bool {
	for _, r := range d.Required {
		if r == name {
			return true
		}
	}
	return false
}

func (p propertyDoc) field(name string) (*Field, error) {
	typ := Type(p.Type)
	if !typ.valid() {
		return nil, fmt.Errorf("field %q: unsupported type %q", name, p.Type)
	}
	f := NewField(name, typ).Describe(p.Description)
	f.MinLength = p.MinLength
	f.MaxLength = p.MaxLength
	f.Minimum = p.Minimum
	f.Maximum = p.Maximum
	if len(p.Enum) > 0 {
		values := make([]string, len(p.Enum))
		for i, v := range p.Enum {
			values[i] = fmt.Sprint(v)
		}
		f.OneOf(values...)
	}
	return f, nil
}

// boundByKind narrows the numeric range of f to what the Go type t can hold.
// Bounds the caller already tightened are kept.
func boundByKind(f *Field, t reflect.Type) {
	var lo, hi *float64
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		l := -math.Ldexp(1, t.Bits()-1)
		h := math.Ldexp(1, t.Bits()-1) - 1
		lo, hi = &l, &h
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		l, h := 0.0, math.Ldexp(1, t.Bits())-1
		lo, hi = &l, &h
	case reflect.Uint, reflect.Uint64:
		l := 0.0
		lo = &l
	default:
		return
	}
	if lo != nil && (f.Minimum == nil || *f.Minimum < *lo) {
		f.Minimum = lo
	}
	if hi != nil && (f.Maximum == nil || *f.Maximum > *hi) {
		f.Maximum = hi
	}
}

// checkTag rejects options a record field cannot carry and malformed
// numbers, which the reflector would otherwise read as zero.
func checkTag(tag string) error {
	if tag == "" {
		return nil
	}
	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "":
		case "minLength", "maxLength":
			if _, err := strconv.ParseUint(value, 10, 31); err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, value, err)
			}
		case "minimum", "maximum":
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, value, err)
			}
		case "enum":
		default:
			return fmt.Errorf("unsupported jsonschema option %q", key)
		}
	}
	return nil
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = sf.Name
	}
	omitempty := false
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func kindToType(k reflect.Kind) (Type, error) {
	switch k {
	case reflect.String:
		return TypeString, nil
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger, nil
	case reflect.Float32, reflect.Float64:
		return TypeNumber, nil
	}
	return "", fmt.Errorf("unsupported kind %s in a flat record", k)
}
