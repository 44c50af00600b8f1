package parser

import (
	"encoding/json"
	"fmt"

	"github.com/smallnest/langfix/schema"
)

// Parser decodes model output straight into a Go value of type T.
type Parser[T any] struct {
	schema *schema.Schema
}

// New creates a Parser whose schema is derived from T's struct tags.
func New[T any]() (*Parser[T], error) {
	s, err := schema.FromStruct[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema: %w", err)
	}
	return &Parser[T]{schema: s}, nil
}

// NewWithSchema creates a Parser that validates against s and decodes into T.
func NewWithSchema[T any](s *schema.Schema) (*Parser[T], error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	return &Parser[T]{schema: s}, nil
}

// Schema returns the schema output is validated against.
func (p *Parser[T]) Schema() *schema.Schema {
	return p.schema
}

// FormatInstructions returns the schema's format instructions.
func (p *Parser[T]) FormatInstructions() string {
	return p.schema.FormatInstructions()
}

// Parse decodes and validates raw, then converts it to T.
func (p *Parser[T]) Parse(raw string) (T, error) {
	rec, err := Decode(raw, p.schema)
	if err != nil {
		var zero T
		return zero, err
	}
	return Convert[T](rec)
}

// Convert maps a validated record onto T through its JSON tags.
func Convert[T any](rec schema.Record) (T, error) {
	var out T
	data, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &StructuralError{
			Raw:    string(data),
			Reason: fmt.Sprintf("record does not fit %T: %v", out, err),
			Err:    err,
		}
	}
	return out, nil
}
