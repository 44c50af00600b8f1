package repair

import (
	"errors"
	"time"

	"github.com/smallnest/langfix/parser"
)

// FailureKind classifies why an attempt did not produce a record.
type FailureKind string

const (
	// FailureNone marks a successful attempt
	FailureNone FailureKind = ""
	// FailureStructural means the output could not be decoded into the schema's shape
	FailureStructural FailureKind = "structural"
	// FailureConstraint means the output decoded but broke a field constraint
	FailureConstraint FailureKind = "constraint"
	// FailureTransport means the generator returned an error
	FailureTransport FailureKind = "transport"
)

// Attempt is one generation request and what came of it.
type Attempt struct {
	// Index is 0 for the initial instruction and k for the k-th repair
	Index int

	// Instruction is the exact text sent to the generator
	Instruction string

	// Raw is the text the generator returned
	Raw string

	// Failure is empty when the attempt decoded successfully
	Failure FailureKind

	// Err is the decode or transport error, nil on success
	Err error

	// Duration covers the generation call only
	Duration time.Duration
}

func classify(err error) FailureKind {
	var constraint *parser.ConstraintError
	if errors.As(err, &constraint) {
		return FailureConstraint
	}
	return FailureStructural
}
