package parser

import (
	"fmt"
	"strings"

	"github.com/smallnest/langfix/schema"
)

// StructuralError reports output that could not be decoded into the shape of
// the schema.
type StructuralError struct {
	Raw        string
	Reason     string
	Violations []schema.Violation
	Err        error
}

func (e *StructuralError) Error() string {
	return "failed to parse output: " + e.Reason
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ConstraintError reports a well-shaped record that violates field
// constraints.
type ConstraintError struct {
	Raw        string
	Record     schema.Record
	Violations []schema.Violation
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("output violates %d constraint(s): %s", len(e.Violations), joinViolations(e.Violations))
}

func joinViolations(vs []schema.Violation) string {
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}
