package schema

import "fmt"

// Type is the JSON type of a field value.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
)

func (t Type) valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// Field describes one named value of a record and its constraints.
// Fields are required unless Optional is called.
type Field struct {
	Name        string
	Type        Type
	Description string
	Required    bool

	// MinLength and MaxLength bound string length in characters (runes).
	MinLength *int
	MaxLength *int

	// Minimum and Maximum bound integer and number values, inclusive.
	Minimum *float64
	Maximum *float64

	Enum []string
}

// NewField creates a required field of the given type.
func NewField(name string, t Type) *Field {
	return &Field{Name: name, Type: t, Required: true}
}

// String creates a required string field.
func String(name string) *Field { return NewField(name, TypeString) }

// Integer creates a required integer field.
func Integer(name string) *Field { return NewField(name, TypeInteger) }

// Number creates a required number field.
func Number(name string) *Field { return NewField(name, TypeNumber) }

// Boolean creates a required boolean field.
func Boolean(name string) *Field { return NewField(name, TypeBoolean) }

// Describe sets the description shown to the model.
func (f *Field) Describe(desc string) *Field {
	f.Description = desc
	return f
}

// Optional marks the field as not required.
func (f *Field) Optional() *Field {
	f.Required = false
	return f
}

// Length bounds the string length in characters. A negative bound is ignored.
func (f *Field) Length(minLen, maxLen int) *Field {
	if minLen >= 0 {
		f.MinLength = &minLen
	}
	if maxLen >= 0 {
		f.MaxLength = &maxLen
	}
	return f
}

// Range bounds a numeric value, both ends inclusive.
func (f *Field) Range(minVal, maxVal float64) *Field {
	f.Minimum = &minVal
	f.Maximum = &maxVal
	return f
}

// Min sets only the lower numeric bound.
func (f *Field) Min(v float64) *Field {
	f.Minimum = &v
	return f
}

// Max sets only the upper numeric bound.
func (f *Field) Max(v float64) *Field {
	f.Maximum = &v
	return f
}

// OneOf restricts a string field to the given values.
func (f *Field) OneOf(values ...string) *Field {
	f.Enum = append([]string(nil), values...)
	return f
}

func (f *Field) check() error {
	if f.Name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if !f.Type.valid() {
		return fmt.Errorf("field %q: unsupported type %q", f.Name, f.Type)
	}
	if f.MinLength != nil || f.MaxLength != nil || len(f.Enum) > 0 {
		if f.Type != TypeString {
			return fmt.Errorf("field %q: length and enum constraints require a string field", f.Name)
		}
	}
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
		return fmt.Errorf("field %q: minLength %d exceeds maxLength %d", f.Name, *f.MinLength, *f.MaxLength)
	}
	if f.Minimum != nil || f.Maximum != nil {
		if f.Type != TypeInteger && f.Type != TypeNumber {
			return fmt.Errorf("field %q: range constraints require a numeric field", f.Name)
		}
	}
	if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
		return fmt.Errorf("field %q: minimum %v exceeds maximum %v", f.Name, *f.Minimum, *f.Maximum)
	}
	return nil
}

func (f *Field) clone() Field {
	c := *f
	if f.MinLength != nil {
		v := *f.MinLength
		c.MinLength = &v
	}
	if f.MaxLength != nil {
		v := *f.MaxLength
		c.MaxLength = &v
	}
	if f.Minimum != nil {
		v := *f.Minimum
		c.Minimum = &v
	}
	if f.Maximum != nil {
		v := *f.Maximum
		c.Maximum = &v
	}
	c.Enum = append([]string(nil), f.Enum...)
	return c
}
